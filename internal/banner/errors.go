package banner

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an operation references an unknown banner id.
	ErrNotFound = errors.New("banner not found")

	// ErrEvaluationSkipped marks a banner whose stored rule data cannot be
	// evaluated. It never leaves the selection pipeline.
	ErrEvaluationSkipped = errors.New("banner evaluation skipped")
)

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by create/update when the payload breaks the
// rendering contract. Nothing is persisted when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
