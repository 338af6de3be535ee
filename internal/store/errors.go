package store

import (
	"errors"
	"fmt"
)

// StateError reports corrupt or incompatible persisted state discovered on
// resume. The search fails rather than silently discarding prior trials.
type StateError struct {
	// Message describes what was wrong with the stored state.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid stored state: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("invalid stored state: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *StateError) Unwrap() error {
	return e.Err
}

// IsStateError reports whether err is (or wraps) a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
