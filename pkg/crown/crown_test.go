package crown

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"dentalseg/internal/models"
	"dentalseg/pkg/profile"
)

// createJawImage creates a synthetic radiograph: bright crowns above row
// gapStart and from row gapEnd on, dark gap in between
func createJawImage(width, height, gapStart, gapEnd int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		v := uint8(200)
		if y >= gapStart && y < gapEnd {
			v = 0
		}
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

// TestDefineOnSyntheticJaws verifies that every column yields the pair (50, 150)
func TestDefineOnSyntheticJaws(t *testing.T) {
	img := createJawImage(200, 200, 50, 150)
	profiles, err := profile.DerivativeProfiles(context.Background(), img, 10, 5, 2)
	if err != nil {
		t.Fatalf("Failed to extract profiles: %v", err)
	}

	set := Define(profiles)
	if len(set.Upper) != len(profiles) || len(set.Lower) != len(profiles) {
		t.Fatalf("Expected %d accepted pairs, got upper=%d lower=%d", len(profiles), len(set.Upper), len(set.Lower))
	}
	for i := range set.Upper {
		if set.Upper[i].Y != 50 {
			t.Errorf("Pair %d: expected upper row 50, got %d", i, set.Upper[i].Y)
		}
		if set.Lower[i].Y != 150 {
			t.Errorf("Pair %d: expected lower row 150, got %d", i, set.Lower[i].Y)
		}
		if set.Upper[i].X != set.Lower[i].X {
			t.Errorf("Pair %d: columns differ %d != %d", i, set.Upper[i].X, set.Lower[i].X)
		}
	}
}

// TestDefineRejectsInvertedOrder verifies the jaw ordering rule
func TestDefineRejectsInvertedOrder(t *testing.T) {
	profiles := []profile.Profile{
		// Maximum above minimum: rejected
		{Column: 0, Derivatives: []int{0, 9, 0, 0, -9, 0}},
		// Minimum above maximum: accepted
		{Column: 5, Derivatives: []int{0, -9, 0, 0, 9, 0}},
	}

	set := Define(profiles)
	if len(set.Upper) != 1 {
		t.Fatalf("Expected 1 accepted pair, got %d", len(set.Upper))
	}
	if set.Upper[0] != image.Pt(5, 1) || set.Lower[0] != image.Pt(5, 4) {
		t.Errorf("Expected pair (5,1)/(5,4), got %v/%v", set.Upper[0], set.Lower[0])
	}
	for i := range set.Upper {
		if set.Upper[i].Y >= set.Lower[i].Y {
			t.Errorf("Upper row %d is not above lower row %d", set.Upper[i].Y, set.Lower[i].Y)
		}
	}
}

func pointsAt(n, y int) []image.Point {
	pts := make([]image.Point, n)
	for i := range pts {
		pts[i] = image.Pt(i*5, y)
	}
	return pts
}

// TestRemoveAfar verifies that points beyond one half-gap are removed and
// points inside the band retained
func TestRemoveAfar(t *testing.T) {
	set := PointSet{
		Upper: append(pointsAt(20, 100), image.Pt(200, 10), image.Pt(205, 60)),
		Lower: append(pointsAt(20, 200), image.Pt(200, 300), image.Pt(205, 240)),
	}

	upper, lower, err := Bands(set)
	if err != nil {
		t.Fatalf("Failed to compute bands: %v", err)
	}
	// Means 94 and 206, midpoint 150, half-gaps 56
	if upper != (Band{Min: 38, Max: 150}) {
		t.Errorf("Expected upper band [38,150], got %+v", upper)
	}
	if lower != (Band{Min: 150, Max: 262}) {
		t.Errorf("Expected lower band [150,262], got %+v", lower)
	}

	filtered, err := RemoveAfar(set)
	if err != nil {
		t.Fatalf("Failed to remove afar points: %v", err)
	}
	if len(filtered.Upper) != 21 {
		t.Errorf("Expected 21 upper points, got %d", len(filtered.Upper))
	}
	if len(filtered.Lower) != 21 {
		t.Errorf("Expected 21 lower points, got %d", len(filtered.Lower))
	}
	for _, p := range filtered.Upper {
		if p.Y == 10 {
			t.Error("Outlier at row 10 was retained")
		}
	}
	for _, p := range filtered.Lower {
		if p.Y == 300 {
			t.Error("Outlier at row 300 was retained")
		}
	}
	if filtered.Upper[len(filtered.Upper)-1] != image.Pt(205, 60) {
		t.Errorf("Expected in-band point (205,60) to be kept last, got %v", filtered.Upper[len(filtered.Upper)-1])
	}

	// Input is not modified
	if len(set.Upper) != 22 {
		t.Errorf("Expected input to keep 22 points, got %d", len(set.Upper))
	}
}

// TestRemoveAfarAdjacentOutliers verifies that consecutive outliers are all removed
func TestRemoveAfarAdjacentOutliers(t *testing.T) {
	upper := pointsAt(30, 100)
	upper[10].Y, upper[11].Y, upper[12].Y = 0, 1, 2
	set := PointSet{Upper: upper, Lower: pointsAt(30, 200)}

	filtered, err := RemoveAfar(set)
	if err != nil {
		t.Fatalf("Failed to remove afar points: %v", err)
	}
	if len(filtered.Upper) != 27 {
		t.Errorf("Expected 27 upper points, got %d", len(filtered.Upper))
	}
}

// TestRemoveAfarEmptySet verifies the degenerate input error
func TestRemoveAfarEmptySet(t *testing.T) {
	_, err := RemoveAfar(PointSet{Upper: pointsAt(3, 10)})
	if !errors.Is(err, models.ErrDegenerateInput) {
		t.Errorf("Expected ErrDegenerateInput, got %v", err)
	}
}
