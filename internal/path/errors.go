package path

import (
	"errors"
	"fmt"
)

// ErrCodeInvalidPath identifies paths that fail to parse or do not resolve
// against the declared shape.
const ErrCodeInvalidPath = "INVALID_PATH"

// InvalidPathError reports a path that cannot be used. It signals a
// programming error in the caller and is returned synchronously.
type InvalidPathError struct {
	Code    string
	Path    string
	Message string
}

func (e *InvalidPathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (path=%q)", e.Code, e.Message, e.Path)
}

func newInvalidPath(p, msg string) *InvalidPathError {
	return &InvalidPathError{Code: ErrCodeInvalidPath, Path: p, Message: msg}
}

// IsInvalidPath reports whether err is, or wraps, an *InvalidPathError.
func IsInvalidPath(err error) bool {
	var ipe *InvalidPathError
	return errors.As(err, &ipe)
}
