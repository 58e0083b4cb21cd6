package clicker

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start while a run is active
var ErrAlreadyRunning = errors.New("a run is already active")

// ConfigurationError reports an option that failed validation
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
