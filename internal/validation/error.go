package validation

import (
	"maps"
	"slices"
)

// Error is the single retained validation failure of a field.
// It is form state, not a Go error.
type Error struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors maps path strings to their validation error.
type Errors map[string]Error

// Paths returns the failing paths in sorted order.
func (e Errors) Paths() []string {
	return slices.Sorted(maps.Keys(e))
}

// Rules returns path → rule name, the compact form used in traces.
func (e Errors) Rules() map[string]string {
	out := make(map[string]string, len(e))
	for p, err := range e {
		out[p] = err.Rule
	}
	return out
}

// Clone returns a shallow copy.
func (e Errors) Clone() Errors {
	if e == nil {
		return Errors{}
	}
	return maps.Clone(e)
}

// Equal reports whether both mappings hold the same errors.
func (e Errors) Equal(other Errors) bool {
	return maps.Equal(e, other)
}
