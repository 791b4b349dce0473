package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller errors: invalid limits, score ranges, or an
// empty similarity target. Wrapped errors carry the violated constraint.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound marks a missing entry. Empty result pages are not errors.
var ErrNotFound = errors.New("not found")

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
