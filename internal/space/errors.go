package space

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid search-space declaration or an
// invalid search setting (bad bounds, empty choice set, factor <= 1).
//
// Validation is fail-fast: a ConfigurationError is always raised before any
// trial runs.
type ConfigurationError struct {
	// Param names the offending parameter, empty for space-level errors.
	Param string

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid configuration: parameter %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
