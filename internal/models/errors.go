package models

import "errors"

var (
	// ErrInvalidConfiguration is returned when a parameter falls outside its
	// documented range. The previous value is kept.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDegenerateInput is returned when the input cannot support the
	// computation: an empty image, an empty crown point set or too few
	// curve samples.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrNoStartFound is returned when the contour seed search exhausts the
	// search area without finding a pixel at or above the threshold.
	ErrNoStartFound = errors.New("no start found")
)
