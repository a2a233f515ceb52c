package binarize

import (
	"context"
	"fmt"
	"image"
	"math"

	"dentalseg/internal/models"
)

const (
	// SlopeHalfWindow is the number of curve points on each side of a
	// segment boundary used to measure the local slope
	SlopeHalfWindow = 10

	// CrownInset moves the crown-side corner of a segment past the crown
	// curve, toward the gap between jaws, so the crown tips are captured
	CrownInset = 30

	// BoundMargin is the border the scan toward the neck may not enter
	BoundMargin = 5

	// MaxHeightFraction limits the scan to this fraction of the local
	// crown to neck distance
	MaxHeightFraction = 0.7
)

// Segment is one binarized crown region
type Segment struct {
	// Boundary is the index k of the boundary that closed the segment
	Boundary int

	Polygon models.PolygonSegment

	// Threshold is the intensity the segment was binarized at
	Threshold int

	// Area is the number of pixels inside the polygon
	Area int
}

// Corners returns the two corners of the boundary at curve index i: the
// crown-side corner and the corner reached by scanning along the local
// slope toward the neck.
//
// The upper jaw scan moves up by one row per step and sideways by +slope,
// the lower jaw scan moves down and sideways by -slope.
func Corners(bounds image.Rectangle, crown, neck models.Curve, jaw models.Jaw, i int) (inner, outer image.Point) {
	start := crown[i]
	slope := models.Slope(crown[i-SlopeHalfWindow], crown[i+SlopeHalfWindow])
	maxHeight := MaxHeightFraction * math.Abs(float64(start.Y-neck[i].Y))

	sign, inset := 1, CrownInset
	if jaw == models.LowerJaw {
		sign, inset = -1, -CrownInset
	}

	outer = start
	for j := 1; ; j++ {
		p := image.Pt(
			start.X+int(math.Round(float64(sign*j)*slope)),
			start.Y-sign*j,
		)
		if !insideMargin(p, bounds) {
			break
		}
		outer = p
		if float64(j) >= maxHeight {
			break
		}
	}

	inner = clampPoint(image.Pt(start.X, start.Y+inset), bounds)
	return inner, outer
}

func insideMargin(p image.Point, b image.Rectangle) bool {
	return p.X >= b.Min.X+BoundMargin && p.X <= b.Max.X-BoundMargin &&
		p.Y >= b.Min.Y+BoundMargin && p.Y <= b.Max.Y-BoundMargin
}

// Crowns splits the band between crown and neck into n segments and
// binarizes each one in place on img.
//
// The segments share img as a single working buffer: segment k reads the
// pixels written by segment k-1, so they are processed strictly in order.
// Boundary 1 only sets up the first pair of corners; a polygon is emitted
// from boundary 2 on, so n segments yield n-2 binarized regions and n < 3
// yields none.
func Crowns(ctx context.Context, img *image.Gray, crown, neck models.Curve, jaw models.Jaw, n int, pct float64) ([]Segment, error) {
	if n < 2 {
		return nil, nil
	}
	if len(neck) < len(crown) {
		return nil, fmt.Errorf("%w: neck curve has %d points, crown curve %d",
			models.ErrDegenerateInput, len(neck), len(crown))
	}

	segmentLength := (len(crown) - 2*SlopeHalfWindow) / n
	if segmentLength < 1 {
		return nil, fmt.Errorf("%w: crown curve of %d points cannot hold %d segments",
			models.ErrDegenerateInput, len(crown), n)
	}

	bounds := img.Bounds()
	segments := make([]Segment, 0, n-2)
	var prevInner, prevOuter image.Point

	for k := 1; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return segments, err
		}

		i := k*segmentLength + SlopeHalfWindow
		inner, outer := Corners(bounds, crown, neck, jaw, i)

		if k > 1 {
			poly := models.PolygonSegment{prevInner, inner, outer, prevOuter}
			thr, area := Polygon(img, poly, pct)
			segments = append(segments, Segment{
				Boundary:  k,
				Polygon:   poly,
				Threshold: thr,
				Area:      area,
			})
		}
		prevInner, prevOuter = inner, outer
	}
	return segments, nil
}
