// Package config provides configuration loading and management for dentalseg.
// It handles loading configuration from YAML files, provides default values
// and validates every parameter against its documented range.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"dentalseg/internal/models"
)

// SegmentationConfig holds the parameters of the crown/neck segmentation pipeline
type SegmentationConfig struct {
	// LineProfileColumnSpacing is the distance in columns between sampled line profiles (1-100)
	LineProfileColumnSpacing int `yaml:"lineProfileColumnSpacing"`

	// LineProfileDerivativeDistance is the row distance used when deriving a profile (1-100)
	LineProfileDerivativeDistance int `yaml:"lineProfileDerivativeDistance"`

	// SplineSampleFraction is the fraction of crown points used to fit the crown curve (0, 1]
	SplineSampleFraction float64 `yaml:"splineSampleFraction"`

	// NecksStdDevThresholdFraction is the ratio of the initial standard deviation
	// below which the neck search stops (0, 1)
	NecksStdDevThresholdFraction float64 `yaml:"necksStdDevThresholdFraction"`

	// CrownBinarizationSegments is the number of segments the crown band is split into (1-100)
	CrownBinarizationSegments int `yaml:"crownBinarizationSegments"`

	// CrownBinarizationPctThreshold is the fraction of brightest pixels kept white in each segment (0, 1)
	CrownBinarizationPctThreshold float64 `yaml:"crownBinarizationPctThreshold"`
}

// TracingConfig holds the parameters of the single tooth contour tracer
type TracingConfig struct {
	// SlopeAngleLookback is how many contour steps back the local direction is measured from (>=1)
	SlopeAngleLookback int `yaml:"slopeAngleLookback"`

	// FirstPixelIntensityThreshold is the minimum intensity of the seed pixel (1-255)
	FirstPixelIntensityThreshold int `yaml:"firstPixelIntensityThreshold"`

	// FirstPixelInnerMargin is the border excluded from the seed search (0-100)
	FirstPixelInnerMargin int `yaml:"firstPixelInnerMargin"`

	// CrownTraceMaxHeightFraction is the fraction of the image height where tracing stops (0, 1)
	CrownTraceMaxHeightFraction float64 `yaml:"crownTraceMaxHeightFraction"`

	// ExtrapolationDistance is how far ahead the next contour point is projected (1-100)
	ExtrapolationDistance int `yaml:"extrapolationDistance"`

	// ExtrapolationMaskSize is the odd side of the search mask around the projection (>=3)
	ExtrapolationMaskSize int `yaml:"extrapolationMaskSize"`
}

// FilterChain describes the denoising applied to an image before it enters a pipeline
type FilterChain struct {
	// Steps lists the filters to apply in order: median, smooth, sobel, closing,
	// contrast, threshold, local
	Steps []string `yaml:"steps"`

	// MedianKernelSize is the odd median kernel size (3-15)
	MedianKernelSize int `yaml:"medianKernelSize"`

	// SmoothingRadius is the radius in pixels of the gaussian blur (1-30)
	SmoothingRadius float64 `yaml:"smoothingRadius"`

	// ClosingSize is the odd structuring element size for closing (3-31)
	ClosingSize int `yaml:"closingSize"`

	// ThresholdLevel is the global binarization level; pixels above it turn white (0-254)
	ThresholdLevel int `yaml:"thresholdLevel"`

	// LocalCellSize is the tile side of the local binarization (4-512)
	LocalCellSize int `yaml:"localCellSize"`

	// LocalPct is the fraction of brightest pixels kept white in each tile (0, 1)
	LocalPct float64 `yaml:"localPct"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many goroutines extract line profiles
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	Segmentation SegmentationConfig `yaml:"segmentation"`

	Tracing TracingConfig `yaml:"tracing"`

	// Preprocessing holds one filter chain per pipeline, as segmentation and
	// tracing work best on differently filtered copies of the input
	Preprocessing struct {
		Segmentation FilterChain `yaml:"segmentation"`
		Tracing      FilterChain `yaml:"tracing"`
	} `yaml:"preprocessing"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Segmentation = SegmentationConfig{
		LineProfileColumnSpacing:      5,
		LineProfileDerivativeDistance: 5,
		SplineSampleFraction:          0.2,
		NecksStdDevThresholdFraction:  0.45,
		CrownBinarizationSegments:     30,
		CrownBinarizationPctThreshold: 0.25,
	}

	cfg.Tracing = TracingConfig{
		SlopeAngleLookback:           3,
		FirstPixelIntensityThreshold: 20,
		FirstPixelInnerMargin:        20,
		CrownTraceMaxHeightFraction:  0.7,
		ExtrapolationDistance:        2,
		ExtrapolationMaskSize:        3,
	}

	cfg.Preprocessing.Segmentation = FilterChain{
		Steps:            []string{"median", "smooth"},
		MedianKernelSize: 5,
		SmoothingRadius:  9,
		ClosingSize:      5,
		ThresholdLevel:   127,
		LocalCellSize:    32,
		LocalPct:         0.25,
	}
	cfg.Preprocessing.Tracing = FilterChain{
		Steps:            []string{"median", "smooth"},
		MedianKernelSize: 3,
		SmoothingRadius:  11,
		ClosingSize:      5,
		ThresholdLevel:   127,
		LocalCellSize:    32,
		LocalPct:         0.25,
	}

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig reads path over the defaults and validates the result. Keys
// missing from the file keep their default value, and a missing file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML with two-space indentation,
// creating missing parent directories
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// CreateDefaultConfigFile writes the defaults to path unless a file is already there
func CreateDefaultConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s: %w", path, fs.ErrExist)
	}
	return SaveConfig(DefaultConfig(), path)
}

// Validate checks every parameter against its documented range
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return invalid("numCores", c.Processing.NumCores, ">= 1")
	}
	if err := c.Segmentation.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	if err := c.Preprocessing.Segmentation.Validate(); err != nil {
		return fmt.Errorf("segmentation preprocessing: %w", err)
	}
	if err := c.Preprocessing.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing preprocessing: %w", err)
	}
	return nil
}

// Validate checks the segmentation parameters
func (s SegmentationConfig) Validate() error {
	checks := []error{
		intRange("lineProfileColumnSpacing", s.LineProfileColumnSpacing, 1, 100),
		intRange("lineProfileDerivativeDistance", s.LineProfileDerivativeDistance, 1, 100),
		fractionRange("splineSampleFraction", s.SplineSampleFraction, true),
		fractionRange("necksStdDevThresholdFraction", s.NecksStdDevThresholdFraction, false),
		intRange("crownBinarizationSegments", s.CrownBinarizationSegments, 1, 100),
		fractionRange("crownBinarizationPctThreshold", s.CrownBinarizationPctThreshold, false),
	}
	return firstError(checks)
}

// Validate checks the tracing parameters
func (t TracingConfig) Validate() error {
	checks := []error{
		atLeast("slopeAngleLookback", t.SlopeAngleLookback, 1),
		intRange("firstPixelIntensityThreshold", t.FirstPixelIntensityThreshold, 1, 255),
		intRange("firstPixelInnerMargin", t.FirstPixelInnerMargin, 0, 100),
		fractionRange("crownTraceMaxHeightFraction", t.CrownTraceMaxHeightFraction, false),
		intRange("extrapolationDistance", t.ExtrapolationDistance, 1, 100),
		oddAtLeast("extrapolationMaskSize", t.ExtrapolationMaskSize, 3, 0),
	}
	return firstError(checks)
}

// Validate checks the filter chain parameters and step names
func (f FilterChain) Validate() error {
	for _, step := range f.Steps {
		if !knownSteps[step] {
			return fmt.Errorf("%w: unknown filter step %q", models.ErrInvalidConfiguration, step)
		}
	}
	checks := []error{
		oddAtLeast("medianKernelSize", f.MedianKernelSize, 3, 15),
		floatRange("smoothingRadius", f.SmoothingRadius, 1, 30),
		oddAtLeast("closingSize", f.ClosingSize, 3, 31),
		intRange("thresholdLevel", f.ThresholdLevel, 0, 254),
		intRange("localCellSize", f.LocalCellSize, 4, 512),
		fractionRange("localPct", f.LocalPct, false),
	}
	return firstError(checks)
}

var knownSteps = map[string]bool{
	"median":   true,
	"smooth":   true,
	"sobel":    true,
	"closing":  true,
	"contrast":  true,
	"threshold": true,
	"local":     true,
}

func invalid(name string, value interface{}, want string) error {
	return fmt.Errorf("%w: %s=%v, must be %s", models.ErrInvalidConfiguration, name, value, want)
}

func intRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return invalid(name, v, fmt.Sprintf("in [%d, %d]", lo, hi))
	}
	return nil
}

func atLeast(name string, v, lo int) error {
	if v < lo {
		return invalid(name, v, fmt.Sprintf(">= %d", lo))
	}
	return nil
}

// oddAtLeast checks v is odd and >= lo; hi of 0 means unbounded
func oddAtLeast(name string, v, lo, hi int) error {
	if v < lo || v%2 == 0 || (hi > 0 && v > hi) {
		if hi > 0 {
			return invalid(name, v, fmt.Sprintf("odd in [%d, %d]", lo, hi))
		}
		return invalid(name, v, fmt.Sprintf("odd and >= %d", lo))
	}
	return nil
}

// fractionRange checks v is in (0, 1), or (0, 1] when closed is set
func fractionRange(name string, v float64, closed bool) error {
	if math.IsNaN(v) || v <= 0 || v > 1 || (!closed && v == 1) {
		if closed {
			return invalid(name, v, "in (0, 1]")
		}
		return invalid(name, v, "in (0, 1)")
	}
	return nil
}

func floatRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return invalid(name, v, fmt.Sprintf("in [%g, %g]", lo, hi))
	}
	return nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
