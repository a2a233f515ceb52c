// Package neck locates the neck curve of each jaw by translating its crown
// curve away from the inter-jaw gap until the intensity texture along the
// curve flattens out.
package neck

import (
	"context"
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	"dentalseg/internal/models"
	"dentalseg/pkg/profile"
)

const (
	// StepSize is the translation in pixels applied per iteration
	StepSize = 5

	// MaxTranslation caps the total translation in pixels. The search is a
	// local descent and is not guaranteed to converge; when the cap is hit
	// the last clamped curve is the result.
	MaxTranslation = 150
)

// Result is the outcome of a neck search
type Result struct {
	// Curve is the translated curve, every y inside [0, height)
	Curve models.Curve

	// Translation is the total number of pixels moved
	Translation int

	// Converged is false when MaxTranslation was reached before the
	// standard deviation dropped below the threshold
	Converged bool

	// InitialStdDev and FinalStdDev are the deviations at the crown and at the result
	InitialStdDev float64
	FinalStdDev   float64
}

// Direction returns the vertical step sign for a jaw: the upper neck lies
// above its crowns, the lower neck below.
func Direction(jaw models.Jaw) int {
	if jaw == models.UpperJaw {
		return -1
	}
	return 1
}

// TextureStdDev is the population standard deviation of the derivative of
// the intensities sampled along c
func TextureStdDev(img *image.Gray, c models.Curve) float64 {
	derivatives := profile.Derive(profile.Along(img, c), 1)
	values := make([]float64, len(derivatives))
	for i, d := range derivatives {
		values[i] = float64(d)
	}
	return stat.PopStdDev(values, nil)
}

// Locate translates crown in StepSize steps toward the jaw's neck and stops
// at the first curve whose texture deviation is below threshold times the
// deviation at the crown curve.
//
// Parameters:
//   - img: source image
//   - crown: crown curve of the jaw; it is not modified
//   - jaw: selects the translation direction
//   - threshold: variance ratio in (0, 1)
func Locate(ctx context.Context, img *image.Gray, crown models.Curve, jaw models.Jaw, threshold float64) (Result, error) {
	if len(crown) == 0 {
		return Result{}, fmt.Errorf("%w: empty crown curve", models.ErrDegenerateInput)
	}
	b := img.Bounds()
	if b.Empty() {
		return Result{}, fmt.Errorf("%w: empty image", models.ErrDegenerateInput)
	}

	sd0 := TextureStdDev(img, crown)
	res := Result{
		Curve:         crown.Clone(),
		InitialStdDev: sd0,
		FinalStdDev:   sd0,
	}
	dy := Direction(jaw) * StepSize

	for res.Translation < MaxTranslation {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		for i := range res.Curve {
			y := res.Curve[i].Y + dy
			res.Curve[i].Y = min(max(y, b.Min.Y), b.Max.Y-1)
		}
		res.Translation += StepSize

		res.FinalStdDev = TextureStdDev(img, res.Curve)
		if res.FinalStdDev < sd0*threshold {
			res.Converged = true
			break
		}
	}
	return res, nil
}
