// Package segmentation runs the crown and neck segmentation pipeline on a
// panoramic radiograph: line profiles, crown points, crown curves, neck
// curves and finally the local binarization of the crown band of each jaw.
package segmentation

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/rs/zerolog"

	"dentalseg/internal/models"
	"dentalseg/pkg/binarize"
	"dentalseg/pkg/config"
	"dentalseg/pkg/crown"
	"dentalseg/pkg/curve"
	"dentalseg/pkg/filters"
	"dentalseg/pkg/neck"
	"dentalseg/pkg/profile"
	"dentalseg/pkg/visualization"
)

// Result holds the binarized image and every intermediate artifact of a run
type Result struct {
	// Image is the binarized copy of the input, same dimensions
	Image *image.Gray

	// CrownPoints are the crown candidates left after outlier removal
	CrownPoints crown.PointSet

	// UpperBand and LowerBand are the row ranges crown candidates had to fall in
	UpperBand crown.Band
	LowerBand crown.Band

	// CrownCurves are the fitted crown curves, one point per column
	CrownCurves models.CurvePair

	// NeckCurves are the crown curves translated to the tooth necks
	NeckCurves models.CurvePair

	// UpperNeck and LowerNeck describe how each neck search ended
	UpperNeck neck.Result
	LowerNeck neck.Result

	// UpperSegments and LowerSegments are the binarized crown regions in boundary order
	UpperSegments []binarize.Segment
	LowerSegments []binarize.Segment
}

// Segmenter handles the segmentation process. It holds no state between
// runs other than the configuration it reads.
type Segmenter struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// Option configures a Segmenter
type Option func(*Segmenter)

// WithLogger sets the logger used for progress output
func WithLogger(l zerolog.Logger) Option {
	return func(s *Segmenter) {
		s.logger = l
	}
}

// NewSegmenter creates a new segmenter reading its parameters from cfg.
// The configuration is copied at the start of every Process call, so it may
// be changed between calls but not during one.
func NewSegmenter(cfg *config.Config, opts ...Option) *Segmenter {
	s := &Segmenter{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs the complete segmentation pipeline on img. img is not modified.
func (s *Segmenter) Process(ctx context.Context, img *image.Gray) (*Result, error) {
	cfg := *s.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", models.ErrDegenerateInput)
	}
	params := cfg.Segmentation
	src := filters.ToGray(img)
	b := src.Bounds()
	res := &Result{}

	// Step 1: Derivative line profiles
	s.logger.Info().
		Int("columnSpacing", params.LineProfileColumnSpacing).
		Int("workers", cfg.Processing.NumCores).
		Msg("Step 1: Extracting line profiles...")
	profiles, err := profile.DerivativeProfiles(ctx, src, params.LineProfileColumnSpacing,
		params.LineProfileDerivativeDistance, cfg.Processing.NumCores)
	if err != nil {
		return nil, fmt.Errorf("failed to extract line profiles: %w", err)
	}

	// Step 2: Crown points
	s.logger.Info().Int("profiles", len(profiles)).Msg("Step 2: Defining crown points...")
	candidates := crown.Define(profiles)
	if res.UpperBand, res.LowerBand, err = crown.Bands(candidates); err != nil {
		return nil, fmt.Errorf("failed to define crown points: %w", err)
	}
	res.CrownPoints, err = crown.RemoveAfar(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to define crown points: %w", err)
	}
	s.logger.Debug().
		Int("upperCandidates", len(candidates.Upper)).
		Int("upperKept", len(res.CrownPoints.Upper)).
		Int("lowerKept", len(res.CrownPoints.Lower)).
		Msg("Removed distant crown points")

	// Step 3: Crown curves
	s.logger.Info().Float64("sampleFraction", params.SplineSampleFraction).Msg("Step 3: Fitting crown curves...")
	if res.CrownCurves.Upper, err = fitCrown(res.CrownPoints.Upper, b, params.SplineSampleFraction); err != nil {
		return nil, fmt.Errorf("failed to fit upper crown curve: %w", err)
	}
	if res.CrownCurves.Lower, err = fitCrown(res.CrownPoints.Lower, b, params.SplineSampleFraction); err != nil {
		return nil, fmt.Errorf("failed to fit lower crown curve: %w", err)
	}

	// Step 4: Neck curves
	s.logger.Info().Float64("threshold", params.NecksStdDevThresholdFraction).Msg("Step 4: Locating neck curves...")
	if res.UpperNeck, err = neck.Locate(ctx, src, res.CrownCurves.Upper, models.UpperJaw, params.NecksStdDevThresholdFraction); err != nil {
		return nil, fmt.Errorf("failed to locate upper neck: %w", err)
	}
	if res.LowerNeck, err = neck.Locate(ctx, src, res.CrownCurves.Lower, models.LowerJaw, params.NecksStdDevThresholdFraction); err != nil {
		return nil, fmt.Errorf("failed to locate lower neck: %w", err)
	}
	res.NeckCurves = models.CurvePair{Upper: res.UpperNeck.Curve, Lower: res.LowerNeck.Curve}
	for _, n := range []struct {
		jaw models.Jaw
		r   neck.Result
	}{{models.UpperJaw, res.UpperNeck}, {models.LowerJaw, res.LowerNeck}} {
		if !n.r.Converged {
			s.logger.Warn().Stringer("jaw", n.jaw).Int("translation", n.r.Translation).
				Msg("Neck search reached the translation limit")
		}
	}

	// Step 5: Crown binarization on a working copy, upper jaw first
	s.logger.Info().
		Int("segments", params.CrownBinarizationSegments).
		Float64("pct", params.CrownBinarizationPctThreshold).
		Msg("Step 5: Binarizing crowns...")
	res.Image = clone(src)
	res.UpperSegments, err = binarize.Crowns(ctx, res.Image, res.CrownCurves.Upper, res.NeckCurves.Upper,
		models.UpperJaw, params.CrownBinarizationSegments, params.CrownBinarizationPctThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize upper crowns: %w", err)
	}
	res.LowerSegments, err = binarize.Crowns(ctx, res.Image, res.CrownCurves.Lower, res.NeckCurves.Lower,
		models.LowerJaw, params.CrownBinarizationSegments, params.CrownBinarizationPctThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize lower crowns: %w", err)
	}

	if cfg.Output.SaveIntermediaryResults {
		s.saveIntermediaryResults(cfg.Output.IntermediaryDir, src, res)
	}

	return res, nil
}

func fitCrown(points []image.Point, b image.Rectangle, fraction float64) (models.Curve, error) {
	c, err := curve.Fit(points, b.Min.X, b.Max.X, fraction)
	if err != nil {
		return nil, err
	}
	return curve.Clamp(c, b.Dy()), nil
}

var (
	upperColor = color.RGBA{R: 255, A: 255}
	lowerColor = color.RGBA{B: 255, A: 255}

	// the upper band ends where the lower one starts, at the midpoint between jaws
	bandMidColor = color.RGBA{G: 255, A: 255}
)

// saveIntermediaryResults renders the artifacts of each step. Failures are
// logged and do not fail the run.
func (s *Segmenter) saveIntermediaryResults(dir string, src *image.Gray, res *Result) {
	stages := []struct {
		name string
		draw func(o *visualization.Overlay)
		base image.Image
	}{
		{"01_crown_points", func(o *visualization.Overlay) {
			o.DrawRow(res.UpperBand.Min, upperColor)
			o.DrawRow(res.UpperBand.Max, bandMidColor)
			o.DrawRow(res.LowerBand.Max, lowerColor)
			o.DrawXAtPoints(res.CrownPoints.Upper, 3, upperColor)
			o.DrawXAtPoints(res.CrownPoints.Lower, 3, lowerColor)
		}, src},
		{"02_crown_curves", func(o *visualization.Overlay) {
			o.DrawCurve(res.CrownCurves.Upper, upperColor)
			o.DrawCurve(res.CrownCurves.Lower, lowerColor)
		}, src},
		{"03_neck_curves", func(o *visualization.Overlay) {
			o.DrawCurve(res.NeckCurves.Upper, upperColor)
			o.DrawCurve(res.NeckCurves.Lower, lowerColor)
		}, src},
		{"04_binarized", func(o *visualization.Overlay) {
			palette := visualization.Palette(max(len(res.UpperSegments), len(res.LowerSegments), 1))
			for i, seg := range res.UpperSegments {
				o.DrawPolygon(seg.Polygon, palette[i])
			}
			for i, seg := range res.LowerSegments {
				o.DrawPolygon(seg.Polygon, palette[i])
			}
		}, res.Image},
	}

	s.logger.Info().Str("dir", dir).Msg("Saving intermediary results...")
	for _, stage := range stages {
		o := visualization.NewOverlay(stage.base)
		stage.draw(o)
		if err := visualization.SaveIntermediary(dir, stage.name, o.Image(), 0); err != nil {
			s.logger.Warn().Err(err).Str("stage", stage.name).Msg("Failed to save intermediary result")
		}
	}
}

func clone(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
