package config

// Setters validate the new value before storing it. A rejected value
// returns an error wrapping models.ErrInvalidConfiguration and leaves the
// previous value in place.

// SetNumCores sets the number of goroutines used for profile extraction
func (c *Config) SetNumCores(n int) error {
	if err := atLeast("numCores", n, 1); err != nil {
		return err
	}
	c.Processing.NumCores = n
	return nil
}

// SetLineProfileColumnSpacing sets the spacing between sampled columns
func (c *Config) SetLineProfileColumnSpacing(v int) error {
	if err := intRange("lineProfileColumnSpacing", v, 1, 100); err != nil {
		return err
	}
	c.Segmentation.LineProfileColumnSpacing = v
	return nil
}

// SetLineProfileDerivativeDistance sets the derivative distance of line profiles
func (c *Config) SetLineProfileDerivativeDistance(v int) error {
	if err := intRange("lineProfileDerivativeDistance", v, 1, 100); err != nil {
		return err
	}
	c.Segmentation.LineProfileDerivativeDistance = v
	return nil
}

// SetSplineSampleFraction sets the fraction of crown points used for the spline
func (c *Config) SetSplineSampleFraction(v float64) error {
	if err := fractionRange("splineSampleFraction", v, true); err != nil {
		return err
	}
	c.Segmentation.SplineSampleFraction = v
	return nil
}

// SetNecksStdDevThresholdFraction sets the neck search stopping ratio
func (c *Config) SetNecksStdDevThresholdFraction(v float64) error {
	if err := fractionRange("necksStdDevThresholdFraction", v, false); err != nil {
		return err
	}
	c.Segmentation.NecksStdDevThresholdFraction = v
	return nil
}

// SetCrownBinarizationSegments sets the number of crown binarization segments
func (c *Config) SetCrownBinarizationSegments(v int) error {
	if err := intRange("crownBinarizationSegments", v, 1, 100); err != nil {
		return err
	}
	c.Segmentation.CrownBinarizationSegments = v
	return nil
}

// SetCrownBinarizationPctThreshold sets the per-segment binarization percentile
func (c *Config) SetCrownBinarizationPctThreshold(v float64) error {
	if err := fractionRange("crownBinarizationPctThreshold", v, false); err != nil {
		return err
	}
	c.Segmentation.CrownBinarizationPctThreshold = v
	return nil
}

// SetSlopeAngleLookback sets how many steps back contour direction is measured
func (c *Config) SetSlopeAngleLookback(v int) error {
	if err := atLeast("slopeAngleLookback", v, 1); err != nil {
		return err
	}
	c.Tracing.SlopeAngleLookback = v
	return nil
}

// SetFirstPixelIntensityThreshold sets the minimum seed pixel intensity
func (c *Config) SetFirstPixelIntensityThreshold(v int) error {
	if err := intRange("firstPixelIntensityThreshold", v, 1, 255); err != nil {
		return err
	}
	c.Tracing.FirstPixelIntensityThreshold = v
	return nil
}

// SetFirstPixelInnerMargin sets the border skipped by the seed search
func (c *Config) SetFirstPixelInnerMargin(v int) error {
	if err := intRange("firstPixelInnerMargin", v, 0, 100); err != nil {
		return err
	}
	c.Tracing.FirstPixelInnerMargin = v
	return nil
}

// SetCrownTraceMaxHeightFraction sets the relative height where tracing stops
func (c *Config) SetCrownTraceMaxHeightFraction(v float64) error {
	if err := fractionRange("crownTraceMaxHeightFraction", v, false); err != nil {
		return err
	}
	c.Tracing.CrownTraceMaxHeightFraction = v
	return nil
}

// SetExtrapolationDistance sets the projection distance of the tracer
func (c *Config) SetExtrapolationDistance(v int) error {
	if err := intRange("extrapolationDistance", v, 1, 100); err != nil {
		return err
	}
	c.Tracing.ExtrapolationDistance = v
	return nil
}

// SetExtrapolationMaskSize sets the odd side of the tracer search mask
func (c *Config) SetExtrapolationMaskSize(v int) error {
	if err := oddAtLeast("extrapolationMaskSize", v, 3, 0); err != nil {
		return err
	}
	c.Tracing.ExtrapolationMaskSize = v
	return nil
}

// SetMedianKernelSize sets the median kernel of a filter chain
func (f *FilterChain) SetMedianKernelSize(v int) error {
	if err := oddAtLeast("medianKernelSize", v, 3, 15); err != nil {
		return err
	}
	f.MedianKernelSize = v
	return nil
}

// SetSmoothingRadius sets the gaussian blur radius of a filter chain
func (f *FilterChain) SetSmoothingRadius(v float64) error {
	if err := floatRange("smoothingRadius", v, 1, 30); err != nil {
		return err
	}
	f.SmoothingRadius = v
	return nil
}

// SetClosingSize sets the closing structuring element of a filter chain
func (f *FilterChain) SetClosingSize(v int) error {
	if err := oddAtLeast("closingSize", v, 3, 31); err != nil {
		return err
	}
	f.ClosingSize = v
	return nil
}

// SetThresholdLevel sets the global binarization level of a filter chain
func (f *FilterChain) SetThresholdLevel(v int) error {
	if err := intRange("thresholdLevel", v, 0, 254); err != nil {
		return err
	}
	f.ThresholdLevel = v
	return nil
}

// SetLocalThreshold sets the tile size and kept fraction of the local binarization
func (f *FilterChain) SetLocalThreshold(cell int, pct float64) error {
	if err := intRange("localCellSize", cell, 4, 512); err != nil {
		return err
	}
	if err := fractionRange("localPct", pct, false); err != nil {
		return err
	}
	f.LocalCellSize, f.LocalPct = cell, pct
	return nil
}
