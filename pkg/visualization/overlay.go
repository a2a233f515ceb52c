// Package visualization renders pipeline artifacts on top of a radiograph:
// crown points, rows, curves, contours and binarization polygons.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"

	"dentalseg/internal/models"
	"dentalseg/pkg/imageio"
)

// Overlay is a color copy of an image that artifacts are drawn onto
type Overlay struct {
	canvas *image.RGBA
}

// NewOverlay creates an overlay from a copy of img; img is not modified
func NewOverlay(img image.Image) *Overlay {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)
	return &Overlay{canvas: canvas}
}

// Image returns the rendered overlay
func (o *Overlay) Image() *image.RGBA {
	return o.canvas
}

// Palette returns n colors with evenly spaced hues
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		c := colorful.Hsv(360*float64(i)/float64(max(n, 1)), 0.9, 1)
		colors[i] = c.Clamped()
	}
	return colors
}

func (o *Overlay) set(x, y int, c color.Color) {
	if image.Pt(x, y).In(o.canvas.Bounds()) {
		o.canvas.Set(x, y, c)
	}
}

// DrawXAtPoints marks every point with an X whose arms reach size pixels
func (o *Overlay) DrawXAtPoints(points []image.Point, size int, c color.Color) {
	for _, p := range points {
		for d := -size; d <= size; d++ {
			o.set(p.X+d, p.Y+d, c)
			o.set(p.X+d, p.Y-d, c)
		}
	}
}

// DrawRow draws a full-width horizontal line at y
func (o *Overlay) DrawRow(y int, c color.Color) {
	for x := 0; x < o.canvas.Bounds().Dx(); x++ {
		o.set(x, y, c)
	}
}

// DrawLine draws a one pixel wide segment between two points
func (o *Overlay) DrawLine(p1, p2 image.Point, c color.Color) {
	dx, dy := abs(p2.X-p1.X), -abs(p2.Y-p1.Y)
	sx, sy := sign(p2.X-p1.X), sign(p2.Y-p1.Y)
	e := dx + dy
	for p := p1; ; {
		o.set(p.X, p.Y, c)
		if p == p2 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

// DrawCurve connects consecutive points of a curve or contour
func (o *Overlay) DrawCurve(points []image.Point, c color.Color) {
	if len(points) == 1 {
		o.set(points[0].X, points[0].Y, c)
	}
	for i := 1; i < len(points); i++ {
		o.DrawLine(points[i-1], points[i], c)
	}
}

// DrawPolygon outlines a binarization polygon
func (o *Overlay) DrawPolygon(poly models.PolygonSegment, c color.Color) {
	for i := range poly {
		o.DrawLine(poly[i], poly[(i+1)%len(poly)], c)
	}
}

// ExtractRegion returns a copy of the overlay inside r
func (o *Overlay) ExtractRegion(r image.Rectangle) (image.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("region %v is empty", r)
	}
	if !r.In(o.canvas.Bounds()) {
		return nil, fmt.Errorf("region %v extends beyond image bounds %v", r, o.canvas.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), o.canvas, r.Min, draw.Src)
	return out, nil
}

// Save writes the overlay to filename, the format follows the extension
func (o *Overlay) Save(filename string) error {
	return imageio.Save(filename, o.canvas)
}

// SaveRegionSequence saves the part of the overlay inside every region as
// a numbered image in outputDir
func (o *Overlay) SaveRegionSequence(regions []image.Rectangle, prefix, outputDir string) error {
	for i, r := range regions {
		img, err := o.ExtractRegion(r.Intersect(o.canvas.Bounds()))
		if err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%03d.png", prefix, i))
		if err := imageio.Save(filename, img); err != nil {
			return err
		}
	}
	return nil
}

// SaveIntermediary writes img as stage/<stage>_<index>.png under dir
func SaveIntermediary(dir, stage string, img image.Image, index int) error {
	filename := filepath.Join(dir, stage, fmt.Sprintf("%s_%03d.png", stage, index))
	return imageio.Save(filename, img)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
