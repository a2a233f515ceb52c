package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"dentalseg/internal/models"
)

var red = color.RGBA{R: 255, A: 255}

func createGrayImage(width, height int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func isRed(o *Overlay, x, y int) bool {
	return o.Image().RGBAAt(x, y) == red
}

// TestNewOverlay verifies the overlay copies the source image
func TestNewOverlay(t *testing.T) {
	img := createGrayImage(10, 8, 100)
	o := NewOverlay(img)

	if o.Image().Bounds() != img.Bounds() {
		t.Errorf("Expected bounds %v, got %v", img.Bounds(), o.Image().Bounds())
	}
	c := o.Image().RGBAAt(3, 3)
	if c.R != 100 || c.G != 100 || c.B != 100 {
		t.Errorf("Expected gray 100, got %v", c)
	}

	o.DrawRow(3, red)
	if img.GrayAt(3, 3).Y != 100 {
		t.Error("Expected source image to be left untouched")
	}
}

// TestDrawXAtPoints verifies both diagonals are drawn and clipped at the border
func TestDrawXAtPoints(t *testing.T) {
	o := NewOverlay(createGrayImage(20, 20, 0))
	o.DrawXAtPoints([]image.Point{{10, 10}, {0, 0}}, 2, red)

	for _, p := range []image.Point{{8, 8}, {12, 12}, {8, 12}, {12, 8}, {10, 10}, {2, 2}} {
		if !isRed(o, p.X, p.Y) {
			t.Errorf("Expected mark at %v", p)
		}
	}
	if isRed(o, 10, 11) {
		t.Error("Expected no mark at (10,11)")
	}
}

// TestDrawRow verifies the whole row is painted
func TestDrawRow(t *testing.T) {
	o := NewOverlay(createGrayImage(15, 5, 0))
	o.DrawRow(2, red)
	o.DrawRow(9, red)

	for x := 0; x < 15; x++ {
		if !isRed(o, x, 2) {
			t.Errorf("Expected row pixel at x=%d", x)
		}
		if isRed(o, x, 1) {
			t.Errorf("Expected no pixel at (%d,1)", x)
		}
	}
}

// TestDrawCurve verifies consecutive points are connected without gaps
func TestDrawCurve(t *testing.T) {
	o := NewOverlay(createGrayImage(20, 20, 0))
	o.DrawCurve([]image.Point{{1, 1}, {10, 1}, {15, 6}, {15, 15}}, red)

	for x := 1; x <= 10; x++ {
		if !isRed(o, x, 1) {
			t.Errorf("Expected horizontal segment pixel at (%d,1)", x)
		}
	}
	for d := 0; d <= 5; d++ {
		if !isRed(o, 10+d, 1+d) {
			t.Errorf("Expected diagonal segment pixel at (%d,%d)", 10+d, 1+d)
		}
	}
	for y := 6; y <= 15; y++ {
		if !isRed(o, 15, y) {
			t.Errorf("Expected vertical segment pixel at (15,%d)", y)
		}
	}
}

// TestDrawPolygon verifies the outline closes back on the first corner
func TestDrawPolygon(t *testing.T) {
	o := NewOverlay(createGrayImage(20, 20, 0))
	poly := models.PolygonSegment{{2, 2}, {12, 2}, {12, 12}, {2, 12}}
	o.DrawPolygon(poly, red)

	for i := 2; i <= 12; i++ {
		for _, p := range []image.Point{{i, 2}, {12, i}, {i, 12}, {2, i}} {
			if !isRed(o, p.X, p.Y) {
				t.Errorf("Expected outline pixel at %v", p)
			}
		}
	}
	if isRed(o, 7, 7) {
		t.Error("Expected interior to be left empty")
	}
}

// TestPalette verifies distinct colors are produced
func TestPalette(t *testing.T) {
	colors := Palette(6)
	if len(colors) != 6 {
		t.Fatalf("Expected 6 colors, got %d", len(colors))
	}
	seen := make(map[color.RGBA]bool)
	for _, c := range colors {
		r, g, b, a := c.RGBA()
		key := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
		if seen[key] {
			t.Errorf("Duplicate palette color %v", key)
		}
		seen[key] = true
	}
}

// TestExtractRegion verifies cropping and bounds checks
func TestExtractRegion(t *testing.T) {
	o := NewOverlay(createGrayImage(10, 10, 0))
	o.DrawRow(5, red)

	region, err := o.ExtractRegion(image.Rect(2, 4, 6, 7))
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}
	if region.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("Expected bounds (0,0)-(4,3), got %v", region.Bounds())
	}
	if r, _, _, _ := region.At(0, 1).RGBA(); r != 0xffff {
		t.Errorf("Expected red row inside region, got %v", region.At(0, 1))
	}

	if _, err := o.ExtractRegion(image.Rect(5, 5, 15, 15)); err == nil {
		t.Error("Expected error for region beyond bounds")
	}
	if _, err := o.ExtractRegion(image.Rectangle{}); err == nil {
		t.Error("Expected error for empty region")
	}
}

// TestSave verifies overlays and intermediary results are written to disk
func TestSave(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "overlay-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	o := NewOverlay(createGrayImage(10, 10, 50))
	filename := filepath.Join(tempDir, "overlay.png")
	if err := o.Save(filename); err != nil {
		t.Fatalf("Failed to save overlay: %v", err)
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Saved file does not exist: %s", filename)
	}

	if err := SaveIntermediary(tempDir, "01_crown_points", o.Image(), 0); err != nil {
		t.Fatalf("Failed to save intermediary result: %v", err)
	}
	filename = filepath.Join(tempDir, "01_crown_points", "01_crown_points_000.png")
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Expected intermediary file does not exist: %s", filename)
	}
}

// TestSaveRegionSequence verifies one file is written per region
func TestSaveRegionSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	outputDir := filepath.Join(t.TempDir(), "segments")
	o := NewOverlay(createGrayImage(20, 20, 50))
	regions := []image.Rectangle{
		image.Rect(0, 0, 5, 5),
		image.Rect(5, 5, 25, 25), // clipped to the image
		image.Rect(10, 0, 20, 5),
	}
	if err := o.SaveRegionSequence(regions, "segment", outputDir); err != nil {
		t.Fatalf("Failed to save region sequence: %v", err)
	}
	for i := range regions {
		filename := filepath.Join(outputDir, fmt.Sprintf("segment_%03d.png", i))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected region file does not exist: %s", filename)
		}
	}

	err := o.SaveRegionSequence([]image.Rectangle{image.Rect(30, 30, 40, 40)}, "segment", outputDir)
	if err == nil {
		t.Error("Expected error for a region outside the image")
	}
}
