package normalize

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a cell holds no usable value
var ErrEmpty = errors.New("empty value")

// ParseError describes a cell that could not be interpreted as the requested field
type ParseError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from %q: %s", e.Field, e.Input, e.Reason)
}

func parseErr(field, input, reason string) error {
	return &ParseError{Field: field, Input: input, Reason: reason}
}

// IsParseError reports whether err carries a *ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
