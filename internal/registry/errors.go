package registry

import (
	"errors"
	"fmt"
)

// ErrCodeDefaultsFailed identifies a defaults source that failed to produce
// a value tree.
const ErrCodeDefaultsFailed = "DEFAULTS_FAILED"

// ErrSourceConsumed is returned when a producer source is handed to the
// registry a second time. Producers run at most once.
var ErrSourceConsumed = errors.New("defaults source already consumed")

// ErrClosed is returned by Await after Close.
var ErrClosed = errors.New("registry closed")

// DefaultsError records a failed defaults source. The registry degrades to
// the zero tree and exposes the error on FormState.DefaultsErr.
type DefaultsError struct {
	Code string
	Err  error
}

func (e *DefaultsError) Error() string {
	return fmt.Sprintf("%s: defaults source failed: %v", e.Code, e.Err)
}

func (e *DefaultsError) Unwrap() error {
	return e.Err
}

func newDefaultsError(err error) *DefaultsError {
	return &DefaultsError{Code: ErrCodeDefaultsFailed, Err: err}
}

// IsDefaultsFailed reports whether err is, or wraps, a *DefaultsError.
func IsDefaultsFailed(err error) bool {
	var de *DefaultsError
	return errors.As(err, &de)
}
