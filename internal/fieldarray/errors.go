package fieldarray

import (
	"errors"
	"fmt"
)

// ErrCodeStaleReference identifies an operation naming an item that no
// longer exists.
const ErrCodeStaleReference = "STALE_REFERENCE"

// StaleReferenceError reports an out-of-range index or an unknown item
// ID. The operation is a no-op; state is unchanged.
type StaleReferenceError struct {
	Code   string
	Array  string
	Op     string
	Index  int
	ID     string
	Length int
}

func (e *StaleReferenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s on %s: unknown item id %q", e.Code, e.Op, e.Array, e.ID)
	}
	return fmt.Sprintf("%s: %s on %s: index %d out of range [0,%d)", e.Code, e.Op, e.Array, e.Index, e.Length)
}

// IsStaleReference reports whether err is, or wraps, a *StaleReferenceError.
func IsStaleReference(err error) bool {
	var se *StaleReferenceError
	return errors.As(err, &se)
}
