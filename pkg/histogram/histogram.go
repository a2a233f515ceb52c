// Package histogram counts 8-bit intensities and looks up percentile thresholds.
package histogram

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Bins is the number of intensity levels of an 8-bit image
const Bins = 256

var dividers = func() []float64 {
	d := make([]float64, Bins+1)
	for i := range d {
		d[i] = float64(i)
	}
	return d
}()

// Compute returns the frequency of every intensity level in values.
// Values outside [0, 255] are ignored.
func Compute(values []int) []int {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= 0 && v < Bins {
			x = append(x, float64(v))
		}
	}
	sort.Float64s(x)

	counts := stat.Histogram(nil, dividers, x, nil)
	hist := make([]int, Bins)
	for i, c := range counts {
		hist[i] = int(c)
	}
	return hist
}

// Threshold returns the intensity at which the brightest pct of the pixels
// is reached. Bins are accumulated from the top; the result is the level
// just below the last bin added, so pixels strictly above it make up at
// least pct of the total. An empty histogram yields 255.
func Threshold(hist []int, pct float64) int {
	total := 0
	for _, c := range hist {
		total += c
	}
	target := int(float64(total) * pct)

	i := len(hist) - 1
	for sum := 0; sum < target && i >= 0; i-- {
		sum += hist[i]
	}
	return i
}
