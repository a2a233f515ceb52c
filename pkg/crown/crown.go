// Package crown detects the points where the tooth crowns of the upper and
// lower jaw meet the dark gap between them.
package crown

import (
	"fmt"
	"image"

	"dentalseg/internal/models"
	"dentalseg/pkg/profile"
)

// PointSet holds crown boundary candidates ordered by x
type PointSet struct {
	// Upper holds the lower edge of the upper jaw crowns
	Upper []image.Point

	// Lower holds the upper edge of the lower jaw crowns
	Lower []image.Point
}

// Define turns derivative profiles into crown point candidates.
//
// The steepest darkening of a column (its derivative minimum) is where the
// upper crowns end, the steepest brightening (its maximum) is where the lower
// crowns start. A column is accepted only when the minimum lies above the
// maximum; ties resolve to the topmost row.
func Define(profiles []profile.Profile) PointSet {
	var set PointSet
	for _, p := range profiles {
		if len(p.Derivatives) == 0 {
			continue
		}
		minRow := profile.MinIndex(p.Derivatives)
		maxRow := profile.MaxIndex(p.Derivatives)

		if minRow < maxRow {
			set.Upper = append(set.Upper, image.Pt(p.Column, minRow))
			set.Lower = append(set.Lower, image.Pt(p.Column, maxRow))
		}
	}
	return set
}

// Band is an inclusive row range
type Band struct {
	Min, Max int
}

// Contains reports whether row y lies inside the band
func (b Band) Contains(y int) bool {
	return y >= b.Min && y <= b.Max
}

// Bands returns the accepted row band of each jaw.
//
// With the mean row of each side and the midpoint between them, a side's
// band runs from the midpoint to its mean pushed outward by the same
// half-gap. A point further than one half-gap from its own mean, on either
// side, is rejected.
func Bands(set PointSet) (upper, lower Band, err error) {
	if len(set.Upper) == 0 || len(set.Lower) == 0 {
		return Band{}, Band{}, fmt.Errorf("%w: empty crown point set (upper=%d lower=%d)",
			models.ErrDegenerateInput, len(set.Upper), len(set.Lower))
	}

	upperAvg := meanRow(set.Upper)
	lowerAvg := meanRow(set.Lower)
	middle := (upperAvg + lowerAvg) / 2

	upper = Band{Min: upperAvg - abs(upperAvg-middle), Max: middle}
	lower = Band{Min: middle, Max: lowerAvg + abs(lowerAvg-middle)}
	return upper, lower, nil
}

// RemoveAfar drops crown points outside their jaw band. The input set is
// left untouched.
func RemoveAfar(set PointSet) (PointSet, error) {
	upper, lower, err := Bands(set)
	if err != nil {
		return PointSet{}, err
	}

	filtered := PointSet{
		Upper: retain(set.Upper, upper),
		Lower: retain(set.Lower, lower),
	}
	if len(filtered.Upper) == 0 || len(filtered.Lower) == 0 {
		return filtered, fmt.Errorf("%w: no crown points left after filtering", models.ErrDegenerateInput)
	}
	return filtered, nil
}

func retain(points []image.Point, band Band) []image.Point {
	kept := make([]image.Point, 0, len(points))
	for _, p := range points {
		if band.Contains(p.Y) {
			kept = append(kept, p)
		}
	}
	return kept
}

// meanRow is the integer mean of the rows, truncated
func meanRow(points []image.Point) int {
	sum := 0
	for _, p := range points {
		sum += p.Y
	}
	return sum / len(points)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
