package tracing

import (
	"context"
	"image"

	"dentalseg/internal/models"
	"dentalseg/pkg/config"
)

type side int

const (
	leftward side = iota
	rightward
)

// Neighbour scan orders for the seed phase. Earlier offsets win ties.
var (
	leftOffsets = []image.Point{
		{-1, 1}, {0, 1}, {1, 1}, // row below
		{-1, -1}, {-1, 0}, // column to the left
	}
	rightOffsets = []image.Point{
		{1, -1}, {1, 0}, {1, 1}, // column to the right
		{-1, 1}, {0, 1}, {1, 1}, // row below
	}
)

type walker struct {
	img   *image.Gray
	cfg   config.TracingConfig
	chain *chain
}

// trace extends the chain on one side until it stops
func (w *walker) trace(ctx context.Context, s side) (DirectionResult, error) {
	b := w.img.Bounds()
	depth := w.cfg.CrownTraceMaxHeightFraction * float64(b.Dy())
	half := w.cfg.ExtrapolationMaskSize / 2

	var dir DirectionResult
	for {
		if err := ctx.Err(); err != nil {
			return dir, err
		}

		var next image.Point
		var ok bool
		if dir.Steps < SeedSteps {
			next, ok = w.brightestNeighbour(s)
		} else {
			target := models.Extrapolate(w.chain.tip(), w.chain.tipAngle(), w.cfg.ExtrapolationDistance)
			if target.X < b.Min.X+half || target.X > b.Max.X-1-half ||
				target.Y < b.Min.Y+half || target.Y > b.Max.Y-1-half {
				dir.Stop = StopBoundary
				break
			}
			next, ok = w.fittest(target, half)
		}
		if !ok {
			dir.Stop = StopExhausted
			break
		}

		w.chain.add(next, w.cfg.SlopeAngleLookback)
		dir.Steps++
		dir.Tip = next
		if float64(next.Y-b.Min.Y) >= depth {
			dir.Stop = StopDepth
			break
		}
	}
	if dir.Steps == 0 {
		dir.Tip = w.chain.tip()
	}
	return dir, nil
}

// brightestNeighbour picks the brightest pixel next to the tip that is not
// yet on the contour
func (w *walker) brightestNeighbour(s side) (image.Point, bool) {
	offsets := leftOffsets
	if s == rightward {
		offsets = rightOffsets
	}
	tip := w.chain.tip()
	b := w.img.Bounds()

	best, bestValue := image.Point{}, -1
	for _, off := range offsets {
		p := tip.Add(off)
		if !p.In(b) || w.chain.has(p) {
			continue
		}
		if v := int(w.img.GrayAt(p.X, p.Y).Y); v > bestValue {
			best, bestValue = p, v
		}
	}
	return best, bestValue >= 0
}

// fittest picks the pixel in the mask around target that stands out most
// above its own neighbourhood
func (w *walker) fittest(target image.Point, half int) (image.Point, bool) {
	var best image.Point
	found := false
	bestFitness := 0.0
	for x := target.X - half; x <= target.X+half; x++ {
		for y := target.Y - half; y <= target.Y+half; y++ {
			p := image.Pt(x, y)
			if w.chain.has(p) {
				continue
			}
			if f := w.fitness(p, half); !found || f > bestFitness {
				best, bestFitness, found = p, f, true
			}
		}
	}
	return best, found
}

// fitness is the intensity at p minus the mean of its in-bounds neighbours
func (w *walker) fitness(p image.Point, half int) float64 {
	b := w.img.Bounds()
	sum, n := 0, 0
	for x := p.X - half; x <= p.X+half; x++ {
		for y := p.Y - half; y <= p.Y+half; y++ {
			q := image.Pt(x, y)
			if q == p || !q.In(b) {
				continue
			}
			sum += int(w.img.GrayAt(x, y).Y)
			n++
		}
	}
	v := float64(w.img.GrayAt(p.X, p.Y).Y)
	if n == 0 {
		return v
	}
	return v - float64(sum)/float64(n)
}
