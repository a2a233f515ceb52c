// Package binarize splits the crown band of each jaw into polygonal segments
// and binarizes every segment against its own intensity histogram, which
// makes the dark gaps between neighbouring teeth stand out.
package binarize

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"dentalseg/internal/models"
	"dentalseg/pkg/histogram"
)

// Mask rasterizes the polygon into an alpha mask covering r. A pixel is
// inside when any part of it is covered, so polygon edges are included.
func Mask(poly models.PolygonSegment, r image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(r)
	if r.Empty() {
		return mask
	}

	z := vector.NewRasterizer(r.Dx(), r.Dy())
	// Corners sit on pixel centres
	at := func(p image.Point) (float32, float32) {
		return float32(p.X-r.Min.X) + 0.5, float32(p.Y-r.Min.Y) + 0.5
	}
	z.MoveTo(at(poly[0]))
	for _, p := range poly[1:] {
		z.LineTo(at(p))
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// Polygon binarizes the pixels of img inside poly in place.
//
// The threshold is taken from the histogram of the pixels inside the polygon
// at the pct brightest fraction; pixels above it become 255, the others 0.
// Pixels outside the polygon are not touched. It returns the threshold used
// and the number of pixels inside the polygon.
func Polygon(img *image.Gray, poly models.PolygonSegment, pct float64) (threshold, area int) {
	b := img.Bounds()
	if b.Empty() {
		return 0, 0
	}
	for i := range poly {
		poly[i] = clampPoint(poly[i], b)
	}
	r := poly.Bounds().Intersect(b)
	if r.Empty() {
		return 0, 0
	}
	mask := Mask(poly, r)

	values := make([]int, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.AlphaAt(x, y).A > 0 {
				values = append(values, int(img.GrayAt(x, y).Y))
			}
		}
	}
	if len(values) == 0 {
		return 0, 0
	}

	threshold = histogram.Threshold(histogram.Compute(values), pct)

	binary := image.NewGray(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if int(img.GrayAt(x, y).Y) > threshold {
				binary.Pix[binary.PixOffset(x, y)] = 255
			}
		}
	}
	draw.DrawMask(img, r, binary, r.Min, binaryMask(mask), r.Min, draw.Src)

	return threshold, len(values)
}

// binaryMask makes every covered pixel fully opaque so DrawMask copies it
// instead of blending along anti-aliased edges
func binaryMask(mask *image.Alpha) *image.Alpha {
	for i, a := range mask.Pix {
		if a > 0 {
			mask.Pix[i] = 0xff
		}
	}
	return mask
}

func clampPoint(p image.Point, b image.Rectangle) image.Point {
	return image.Pt(
		min(max(p.X, b.Min.X), b.Max.X-1),
		min(max(p.Y, b.Min.Y), b.Max.Y-1),
	)
}
