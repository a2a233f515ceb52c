package models

import (
	"image"
	"math"
)

// Curve is an ordered sequence of points with one point per integer x
// across the range it was evaluated on.
type Curve []image.Point

// Clone returns a copy of the curve that shares no storage with c.
func (c Curve) Clone() Curve {
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// CurvePair holds one curve per jaw
type CurvePair struct {
	// Upper is the curve of the upper jaw
	Upper Curve

	// Lower is the curve of the lower jaw
	Lower Curve
}

// Jaw selects the upper or lower dental arch
type Jaw int

const (
	UpperJaw Jaw = iota
	LowerJaw
)

func (j Jaw) String() string {
	if j == UpperJaw {
		return "upper"
	}
	return "lower"
}

// PolygonSegment is a clockwise quadrilateral of image points bounding one
// crown region that gets binarized on its own.
type PolygonSegment [4]image.Point

// Bounds returns the smallest rectangle containing every corner of the polygon.
func (p PolygonSegment) Bounds() image.Rectangle {
	r := image.Rectangle{Min: p[0], Max: p[0]}
	for _, q := range p[1:] {
		r.Min.X = min(r.Min.X, q.X)
		r.Min.Y = min(r.Min.Y, q.Y)
		r.Max.X = max(r.Max.X, q.X)
		r.Max.Y = max(r.Max.Y, q.Y)
	}
	// Rectangles are half-open, corners are inclusive
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Slope returns dy/dx between two points, or 0 for a vertical pair.
func Slope(p1, p2 image.Point) float64 {
	dx := float64(p2.X - p1.X)
	dy := float64(p2.Y - p1.Y)
	if dx == 0 {
		return 0
	}
	return dy / dx
}

// Angle returns the direction from p1 to p2 in radians.
func Angle(p1, p2 image.Point) float64 {
	return math.Atan2(float64(p2.Y-p1.Y), float64(p2.X-p1.X))
}

// Extrapolate moves distance pixels away from anchor along angle, rounding
// each axis to the nearest pixel.
func Extrapolate(anchor image.Point, angle float64, distance int) image.Point {
	dx := int(math.Round(float64(distance) * math.Cos(angle)))
	dy := int(math.Round(float64(distance) * math.Sin(angle)))
	return image.Pt(anchor.X+dx, anchor.Y+dy)
}
