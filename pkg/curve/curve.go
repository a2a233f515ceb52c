// Package curve fits smooth interpolating curves through crown points.
package curve

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/interp"

	"dentalseg/internal/models"
)

// AllSamples makes Fit use every input point
const AllSamples = -1.0

// Subsample picks every n/k-th point where k = max(1, round(n*fraction)),
// then appends the final point when the stride skipped it. A fraction that
// is not in (0, 1] keeps every point.
func Subsample(points []image.Point, fraction float64) []image.Point {
	n := len(points)
	if n == 0 {
		return nil
	}

	stride := 1
	if fraction > 0 && fraction <= 1 {
		k := max(1, int(math.Round(float64(n)*fraction)))
		stride = max(1, n/k)
	}

	samples := make([]image.Point, 0, n/stride+1)
	last := 0
	for i := 0; i < n; i += stride {
		samples = append(samples, points[i])
		last = i
	}
	if last != n-1 {
		samples = append(samples, points[n-1])
	}
	return samples
}

// Fit interpolates a natural cubic spline through a subsample of points and
// evaluates it at every integer x in [minX, maxX).
//
// Points must be ordered by x. Samples that do not strictly increase in x
// are skipped. The curve passes exactly through every kept sample; outside
// the sampled x range it holds the nearest end value.
//
// Returns ErrDegenerateInput when fewer than two distinct x samples remain
// or the x range is empty.
func Fit(points []image.Point, minX, maxX int, fraction float64) (models.Curve, error) {
	if maxX <= minX {
		return nil, fmt.Errorf("%w: empty x range [%d, %d)", models.ErrDegenerateInput, minX, maxX)
	}

	var xs, ys []float64
	for _, p := range Subsample(points, fraction) {
		x := float64(p.X)
		if len(xs) > 0 && x <= xs[len(xs)-1] {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, float64(p.Y))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: %d distinct curve samples, need 2", models.ErrDegenerateInput, len(xs))
	}

	predictor, err := fitPredictor(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("spline fit failed: %w", err)
	}

	curve := make(models.Curve, 0, maxX-minX)
	for x := minX; x < maxX; x++ {
		y := predictor.Predict(float64(x))
		curve = append(curve, image.Pt(x, int(math.Round(y))))
	}
	return curve, nil
}

// fitPredictor uses a natural cubic spline, or a straight line when only
// two samples exist
func fitPredictor(xs, ys []float64) (interp.Predictor, error) {
	if len(xs) == 2 {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, err
		}
		return &pl, nil
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &nc, nil
}

// Clamp limits every y of the curve to [0, height) in place and returns it
func Clamp(c models.Curve, height int) models.Curve {
	for i := range c {
		c[i].Y = min(max(c[i].Y, 0), height-1)
	}
	return c
}
