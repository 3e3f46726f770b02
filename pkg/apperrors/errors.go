// Package apperrors defines sentinel errors shared across service boundaries.
package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)
