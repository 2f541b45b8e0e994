package clinic

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the entity managers. Handlers branch on these
// with errors.Is to pick the user-facing message and status.
var (
	// ErrNotFound indicates a referenced identifier does not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a delete was blocked by existing dependent records.
	ErrConflict = errors.New("record has dependents")
)

// ValidationError indicates malformed or missing input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
