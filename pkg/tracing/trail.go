package tracing

import (
	"image"

	"dentalseg/internal/models"
)

// trail is one direction of a contour, ordered from the seed outward
type trail struct {
	points []image.Point
	slopes []float64
	angles []float64
}

func (t *trail) push(p image.Point, slope, angle float64) {
	t.points = append(t.points, p)
	t.slopes = append(t.slopes, slope)
	t.angles = append(t.angles, angle)
}

// chain joins the left and right trails into one left-to-right contour
// without reversing either of them. While tracing left the contour is the
// left trail itself; once tracing right it reads the left trail backwards
// followed by the right trail.
type chain struct {
	left, right trail
	rightward   bool
	visited     map[image.Point]struct{}
}

func newChain() *chain {
	return &chain{visited: make(map[image.Point]struct{})}
}

func (c *chain) len() int {
	if c.rightward {
		return len(c.left.points) + len(c.right.points)
	}
	return len(c.left.points)
}

// fromTip returns the index into a trail of the point k steps behind the tip
func (c *chain) fromTip(k int) (*trail, int) {
	if !c.rightward {
		return &c.left, len(c.left.points) - 1 - k
	}
	if k < len(c.right.points) {
		return &c.right, len(c.right.points) - 1 - k
	}
	return &c.left, k - len(c.right.points)
}

func (c *chain) pointFromTip(k int) image.Point {
	t, i := c.fromTip(k)
	return t.points[i]
}

func (c *chain) tip() image.Point {
	return c.pointFromTip(0)
}

// tipAngle is the direction recorded when the tip was added
func (c *chain) tipAngle() float64 {
	t, i := c.fromTip(0)
	return t.angles[i]
}

// front is the first point of the ordered contour
func (c *chain) front() image.Point {
	return c.pointFromTip(c.len() - 1)
}

func (c *chain) has(p image.Point) bool {
	_, ok := c.visited[p]
	return ok
}

// add appends p at the tip and records the local slope and angle. They are
// measured from the point lookback steps behind the new tip, or from the
// front of the contour while it is not longer than lookback.
func (c *chain) add(p image.Point, lookback int) {
	current := &c.left
	if c.rightward {
		current = &c.right
	}
	c.visited[p] = struct{}{}

	n := c.len() + 1
	if n == 1 {
		current.push(p, 0, 0)
		return
	}

	var from image.Point
	if n <= lookback {
		from = c.front()
	} else {
		// The new tip is not stored yet, so it is lookback-1 steps from the current tip
		from = c.pointFromTip(lookback - 1)
	}
	current.push(p, models.Slope(from, p), models.Angle(from, p))
}

// contour materializes the ordered contour
func (c *chain) contour() models.Contour {
	n := len(c.left.points) + len(c.right.points)
	out := models.Contour{
		Points: make([]image.Point, 0, n),
		Slopes: make([]float64, 0, n),
		Angles: make([]float64, 0, n),
	}
	for i := len(c.left.points) - 1; i >= 0; i-- {
		out.Points = append(out.Points, c.left.points[i])
		out.Slopes = append(out.Slopes, c.left.slopes[i])
		out.Angles = append(out.Angles, c.left.angles[i])
	}
	out.Points = append(out.Points, c.right.points...)
	out.Slopes = append(out.Slopes, c.right.slopes...)
	out.Angles = append(out.Angles, c.right.angles...)
	return out
}
