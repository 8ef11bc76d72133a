package risk

import (
	"fmt"
	"strings"
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError is returned for malformed or out-of-range input.
// It is safe to show to the caller.
type InvalidInputError struct {
	Problems []FieldError
}

// NewInvalidInputError builds an error with a single problem.
func NewInvalidInputError(field, format string, args ...any) *InvalidInputError {
	e := &InvalidInputError{}
	e.Add(field, format, args...)
	return e
}

// Add appends a problem for field.
func (e *InvalidInputError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether no problems were recorded.
func (e *InvalidInputError) Empty() bool {
	return len(e.Problems) == 0
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
