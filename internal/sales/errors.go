package sales

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input; nothing with this
	// error ever reached persistence.
	ErrValidation = errors.New("validation failed")

	// ErrEventNotFound means a requested event id has no stored event.
	ErrEventNotFound = errors.New("event not found")

	// ErrNotFound means the referenced registration does not exist.
	ErrNotFound = errors.New("registration not found")

	// ErrAllRegistered rejects a batch consisting entirely of duplicates.
	ErrAllRegistered = errors.New("student is already registered for every requested event")

	// ErrConflict is a uniqueness collision, either pre-checked or
	// surfaced by the database during the write. Callers should re-read
	// state and resubmit; the engine never retries on its own.
	ErrConflict = errors.New("conflicting record")

	// ErrForbidden means the actor is neither the owning member nor an
	// admin.
	ErrForbidden = errors.New("not allowed to modify this registration")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
