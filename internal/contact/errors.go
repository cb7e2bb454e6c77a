package contact

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is; every layer wraps them
// with operation context instead of replacing them.
var (
	// ErrStorageUnavailable means the backing database could not be opened
	// or is in a state this build cannot use.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateEmail means another record already owns the email.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("contact not found")

	// ErrMalformedInput means an import payload is not a collection of
	// contact records at all.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalid means a record is missing a required field.
	ErrInvalid = errors.New("invalid contact")
)

// ValidationError names the required field that was missing.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid contact: %s is required", e.Field)
}

// Unwrap lets errors.Is(err, ErrInvalid) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}
