// Package profile extracts vertical intensity profiles from grayscale images
// and derives them. The derivative profiles are the raw signal the crown
// boundaries are detected from.
package profile

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gonum.org/v1/gonum/floats"

	"dentalseg/internal/models"
)

// Profile is the derivative of the intensity profile of one image column.
// Derivatives has one value per image row.
type Profile struct {
	Column      int
	Derivatives []int
}

// Derive returns the discrete derivative of values at distance d.
// Element 0 is 0, elements up to d are measured against element 0 and the
// rest against the element d positions earlier.
func Derive(values []int, d int) []int {
	derivatives := make([]int, len(values))
	for i := 1; i < len(values); i++ {
		if i > d {
			derivatives[i] = values[i] - values[i-d]
		} else {
			derivatives[i] = values[i] - values[0]
		}
	}
	return derivatives
}

// Column returns the intensities of column x from top to bottom
func Column(img *image.Gray, x int) []int {
	b := img.Bounds()
	values := make([]int, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		values[y-b.Min.Y] = int(img.GrayAt(x, y).Y)
	}
	return values
}

// Along returns the intensities sampled at each point, in order
func Along(img *image.Gray, points []image.Point) []int {
	values := make([]int, len(points))
	for i, p := range points {
		values[i] = int(img.GrayAt(p.X, p.Y).Y)
	}
	return values
}

// MinIndex returns the index of the smallest value; ties resolve to the first one.
// It panics on an empty slice.
func MinIndex(values []int) int {
	return floats.MinIdx(toFloats(values))
}

// MaxIndex returns the index of the largest value; ties resolve to the first one.
// It panics on an empty slice.
func MaxIndex(values []int) int {
	return floats.MaxIdx(toFloats(values))
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// DerivativeProfiles derives the vertical profile of every spacing-th column.
//
// Parameters:
//   - img: source image, must not be empty
//   - spacing: column spacing between profiles (>= 1)
//   - distance: derivative distance (>= 1)
//   - workers: goroutines used to extract columns (values < 1 mean one)
//
// Columns are written into fixed slots, so the output order is the column
// order regardless of the number of workers.
func DerivativeProfiles(ctx context.Context, img *image.Gray, spacing, distance, workers int) ([]Profile, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", models.ErrDegenerateInput)
	}
	if spacing < 1 || distance < 1 {
		return nil, fmt.Errorf("%w: spacing=%d distance=%d", models.ErrInvalidConfiguration, spacing, distance)
	}
	if workers < 1 {
		workers = 1
	}

	b := img.Bounds()
	width := b.Dx()
	count := (width + spacing - 1) / spacing
	profiles := make([]Profile, count)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				x := b.Min.X + i*spacing
				profiles[i] = Profile{
					Column:      x,
					Derivatives: Derive(Column(img, x), distance),
				}
			}
		}()
	}

	var err error
	for i := 0; i < count; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return profiles, nil
}
