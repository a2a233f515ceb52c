package imageio

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"path/filepath"
	"testing"
)

// createGradientImage creates a horizontal gradient
func createGradientImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (width - 1))})
		}
	}
	return img
}

// TestRoundTrip verifies lossless formats keep every pixel
func TestRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	img := createGradientImage(32, 8)

	for _, name := range []string{"out.png", "nested/out.bmp", "out.tif"} {
		path := filepath.Join(tempDir, name)
		if err := SaveGray(path, img); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}

		loaded, err := LoadGray(path)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}
		if loaded.Bounds() != img.Bounds() {
			t.Fatalf("Expected bounds %v for %s, got %v", img.Bounds(), name, loaded.Bounds())
		}
		for i := range img.Pix {
			if loaded.Pix[i] != img.Pix[i] {
				t.Fatalf("Expected pixel %d of %s to be %d, got %d", i, name, img.Pix[i], loaded.Pix[i])
			}
		}
	}
}

// TestLoadColorImage verifies color input is reduced to gray
func TestLoadColorImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "color.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 90, 90, 90, 255
	}
	if err := Save(path, img); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded, err := LoadGray(path)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if got := loaded.GrayAt(2, 2).Y; got < 89 || got > 91 {
		t.Errorf("Expected gray about 90, got %d", got)
	}
}

// TestLoadMissing verifies a missing file is reported
func TestLoadMissing(t *testing.T) {
	_, err := LoadGray(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}
