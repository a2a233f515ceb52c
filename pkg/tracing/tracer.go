// Package tracing follows the outline of a single tooth from a bright seed
// pixel, first toward the left and then toward the right, until each side
// reaches the configured depth or runs out of candidates.
package tracing

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog"

	"dentalseg/internal/models"
	"dentalseg/pkg/config"
	"dentalseg/pkg/visualization"
)

// SeedSteps is the number of steps each direction takes with the brightest
// neighbour rule before switching to extrapolation.
const SeedSteps = 6

// ContourStage names the intermediary result holding the traced contour
const ContourStage = "05_contour"

// State is a stage of the tracer
type State int

const (
	StateSeekStart State = iota
	StateTraceLeft
	StateTraceRight
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeekStart:
		return "seek-start"
	case StateTraceLeft:
		return "trace-left"
	case StateTraceRight:
		return "trace-right"
	default:
		return "done"
	}
}

// StopReason tells why a direction stopped
type StopReason int

const (
	// StopDepth means the tip reached the configured fraction of the image height
	StopDepth StopReason = iota

	// StopBoundary means the extrapolated target left the area where the mask fits
	StopBoundary

	// StopExhausted means every candidate around the tip was already on the contour
	StopExhausted
)

func (r StopReason) String() string {
	switch r {
	case StopDepth:
		return "depth"
	case StopBoundary:
		return "boundary"
	default:
		return "exhausted"
	}
}

// DirectionResult summarizes one side of a trace
type DirectionResult struct {
	// Steps is the number of points added after the seed
	Steps int

	// Stop is the reason the side ended
	Stop StopReason

	// Tip is the last point added on this side
	Tip image.Point
}

// Result is the outcome of a trace
type Result struct {
	// Image is the input, left untouched
	Image *image.Gray

	// Seed is the pixel the trace started from
	Seed image.Point

	// Contour is ordered from the end of the left side to the end of the right side
	Contour models.Contour

	Left  DirectionResult
	Right DirectionResult
}

// Tracer traces tooth contours with a fixed set of parameters
type Tracer struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// Option configures a Tracer
type Option func(*Tracer)

// WithLogger sets the logger used for progress output
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracer) {
		t.logger = l
	}
}

// NewTracer creates a tracer reading its parameters from cfg. The tracing
// section is copied at the start of every Process call, so cfg may be
// changed between calls.
func NewTracer(cfg *config.Config, opts ...Option) *Tracer {
	t := &Tracer{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SeekStart finds the seed pixel using the configured threshold and margin
func (t *Tracer) SeekStart(img *image.Gray) (image.Point, error) {
	params := t.cfg.Tracing
	return FindSeed(img, params.FirstPixelIntensityThreshold, params.FirstPixelInnerMargin)
}

// FindSeed returns the first pixel in row-major order inside the image,
// shrunk by margin on every side, whose intensity is at least threshold.
func FindSeed(img *image.Gray, threshold, margin int) (image.Point, error) {
	b := img.Bounds()
	region := image.Rectangle{
		Min: image.Pt(b.Min.X+margin, b.Min.Y+margin),
		Max: image.Pt(b.Max.X-margin, b.Max.Y-margin),
	}
	if region.Empty() {
		return image.Point{}, fmt.Errorf("%w: margin %d leaves no search area", models.ErrNoStartFound, margin)
	}

	w := region.Dx()
	n := w * region.Dy()
	for i := 0; i < n; i++ {
		x := region.Min.X + i%w
		y := region.Min.Y + i/w
		if int(img.GrayAt(x, y).Y) >= threshold {
			return image.Pt(x, y), nil
		}
	}
	return image.Point{}, fmt.Errorf("%w: no pixel >= %d", models.ErrNoStartFound, threshold)
}

// Process traces the contour of the tooth in img
func (t *Tracer) Process(ctx context.Context, img *image.Gray) (*Result, error) {
	params := t.cfg.Tracing
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", models.ErrDegenerateInput)
	}

	res := &Result{Image: img}
	c := newChain()
	w := &walker{img: img, cfg: params, chain: c}

	for state := StateSeekStart; state != StateDone; {
		t.logger.Debug().Stringer("state", state).Msg("Entering state")
		switch state {
		case StateSeekStart:
			seed, err := FindSeed(img, params.FirstPixelIntensityThreshold, params.FirstPixelInnerMargin)
			if err != nil {
				return nil, err
			}
			res.Seed = seed
			c.add(seed, params.SlopeAngleLookback)
			t.logger.Info().Int("x", seed.X).Int("y", seed.Y).Msg("Step 1: Found seed pixel")
			state = StateTraceLeft

		case StateTraceLeft:
			dir, err := w.trace(ctx, leftward)
			if err != nil {
				return nil, err
			}
			res.Left = dir
			t.logger.Info().Int("steps", dir.Steps).Stringer("stop", dir.Stop).Msg("Step 2: Traced left side")
			state = StateTraceRight

		case StateTraceRight:
			c.rightward = true
			dir, err := w.trace(ctx, rightward)
			if err != nil {
				return nil, err
			}
			res.Right = dir
			t.logger.Info().Int("steps", dir.Steps).Stringer("stop", dir.Stop).Msg("Step 3: Traced right side")
			state = StateDone
		}
	}

	res.Contour = c.contour()

	if t.cfg.Output.SaveIntermediaryResults {
		t.saveContour(t.cfg.Output.IntermediaryDir, res)
	}
	return res, nil
}

// saveContour renders the traced contour and its seed. A failure is logged
// and does not fail the trace.
func (t *Tracer) saveContour(dir string, res *Result) {
	o := visualization.NewOverlay(res.Image)
	o.DrawCurve(res.Contour.Points, color.RGBA{R: 255, G: 255, A: 255})
	o.DrawXAtPoints([]image.Point{res.Seed}, 3, color.RGBA{R: 255, A: 255})
	if err := visualization.SaveIntermediary(dir, ContourStage, o.Image(), 0); err != nil {
		t.logger.Warn().Err(err).Str("stage", ContourStage).Msg("Failed to save intermediary result")
	}
}
