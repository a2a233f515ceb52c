package models

import "image"

// Contour is an ordered, duplicate-free sequence of boundary points. Slopes
// and Angles are parallel to Points and hold the local direction measured
// when each point was added.
type Contour struct {
	Points []image.Point
	Slopes []float64
	Angles []float64
}

// Len returns the number of points in the contour
func (c *Contour) Len() int {
	return len(c.Points)
}
