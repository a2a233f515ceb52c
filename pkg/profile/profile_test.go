package profile

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"dentalseg/internal/models"
)

// createBandImage creates a grayscale image with the given intensity per row band
func createBandImage(width, height int, pattern func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: pattern(x, y)})
		}
	}
	return img
}

// TestDerive verifies the derivative definition for both ranges of i
func TestDerive(t *testing.T) {
	values := []int{10, 12, 15, 20, 30, 31, 29, 40}
	d := 2

	got := Derive(values, d)
	if len(got) != len(values) {
		t.Fatalf("Expected length %d, got %d", len(values), len(got))
	}
	if got[0] != 0 {
		t.Errorf("Expected element 0 to be 0, got %d", got[0])
	}
	for i := 1; i < len(values); i++ {
		var want int
		if i > d {
			want = values[i] - values[i-d]
		} else {
			want = values[i] - values[0]
		}
		if got[i] != want {
			t.Errorf("Element %d: expected %d, got %d", i, want, got[i])
		}
	}
}

// TestDeriveShortInput verifies inputs shorter than the distance
func TestDeriveShortInput(t *testing.T) {
	if got := Derive(nil, 3); len(got) != 0 {
		t.Errorf("Expected empty derivative, got %v", got)
	}
	got := Derive([]int{5, 9}, 10)
	if got[0] != 0 || got[1] != 4 {
		t.Errorf("Expected [0 4], got %v", got)
	}
}

// TestMinMaxIndex verifies unique extrema and first-occurrence plateaus
func TestMinMaxIndex(t *testing.T) {
	values := []int{3, -7, 2, 9, 1}
	if got := MinIndex(values); got != 1 {
		t.Errorf("Expected min index 1, got %d", got)
	}
	if got := MaxIndex(values); got != 3 {
		t.Errorf("Expected max index 3, got %d", got)
	}

	plateau := []int{0, 5, 5, 5, -2, -2}
	if got := MaxIndex(plateau); got != 1 {
		t.Errorf("Expected plateau max at 1, got %d", got)
	}
	if got := MinIndex(plateau); got != 4 {
		t.Errorf("Expected plateau min at 4, got %d", got)
	}
}

// TestDerivativeProfiles verifies sampled columns and their derivatives
func TestDerivativeProfiles(t *testing.T) {
	img := createBandImage(23, 40, func(x, y int) uint8 {
		return uint8(y * 3)
	})

	for _, workers := range []int{1, 4} {
		profiles, err := DerivativeProfiles(context.Background(), img, 5, 2, workers)
		if err != nil {
			t.Fatalf("Failed to extract profiles: %v", err)
		}

		// Columns 0, 5, 10, 15, 20
		if len(profiles) != 5 {
			t.Fatalf("Expected 5 profiles, got %d", len(profiles))
		}
		for i, p := range profiles {
			if p.Column != i*5 {
				t.Errorf("Profile %d: expected column %d, got %d", i, i*5, p.Column)
			}
			if len(p.Derivatives) != 40 {
				t.Errorf("Profile %d: expected 40 derivatives, got %d", i, len(p.Derivatives))
			}
			// Linear ramp of 3 per row gives 6 past the derivative distance
			if p.Derivatives[10] != 6 {
				t.Errorf("Profile %d: expected derivative 6 at row 10, got %d", i, p.Derivatives[10])
			}
		}
	}
}

// TestDerivativeProfilesEmptyImage verifies the fail-fast on empty input
func TestDerivativeProfilesEmptyImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 0, 0))
	_, err := DerivativeProfiles(context.Background(), img, 1, 1, 1)
	if !errors.Is(err, models.ErrDegenerateInput) {
		t.Errorf("Expected ErrDegenerateInput, got %v", err)
	}
}

// TestDerivativeProfilesCancelled verifies that a cancelled context aborts extraction
func TestDerivativeProfilesCancelled(t *testing.T) {
	img := createBandImage(50, 10, func(x, y int) uint8 { return 0 })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := DerivativeProfiles(ctx, img, 1, 1, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestAlong verifies sampling along an arbitrary point sequence
func TestAlong(t *testing.T) {
	img := createBandImage(10, 10, func(x, y int) uint8 { return uint8(x*10 + y) })
	pts := []image.Point{{0, 0}, {3, 4}, {9, 9}}
	got := Along(img, pts)
	want := []int{0, 34, 99}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Point %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}
