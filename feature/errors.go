package feature

import "errors"

// Input validation errors, raised before any computation begins.
var (
	// ErrInvalidType reports input that is not a usable tensor: nil or
	// empty data, or data inconsistent with the declared shape.
	ErrInvalidType = errors.New("feature: input is not a valid tensor")

	// ErrInvalidShape reports input whose shape is not BxCxHxW.
	ErrInvalidShape = errors.New("feature: invalid input shape, expect BxCxHxW")
)
