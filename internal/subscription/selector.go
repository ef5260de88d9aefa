package subscription

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/registry"
)

// DerivedKind names an aggregate of FormState.
type DerivedKind string

const (
	Errors        DerivedKind = "errors"
	DirtyFields   DerivedKind = "dirtyFields"
	TouchedFields DerivedKind = "touchedFields"
	IsDirty       DerivedKind = "isDirty"
	Status        DerivedKind = "status"
	Validating    DerivedKind = "isValidating"
	Submission    DerivedKind = "submission"
)

// DerivedKinds lists every derived kind.
var DerivedKinds = []DerivedKind{Errors, DirtyFields, TouchedFields, IsDirty, Status, Validating, Submission}

// ParseDerivedKind converts a name to a DerivedKind.
func ParseDerivedKind(s string) (DerivedKind, error) {
	for _, k := range DerivedKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown derived state %q", s)
}

type selectorKind int

const (
	selAllValues selectorKind = iota + 1
	selPaths
	selDerived
	selEverything
)

// Selector chooses which commits reach a subscription.
type Selector struct {
	kind    selectorKind
	paths   []path.Path
	derived DerivedKind
}

// AllValues matches every commit that writes the value tree. Commits that
// only touch, validate or record a submit do not reach it; use Everything
// or a derived selector for those.
func AllValues() Selector {
	return Selector{kind: selAllValues}
}

// Paths matches value commits whose written paths overlap any of ps: equal,
// an ancestor or a descendant. Commits that only touch, validate, record
// errors or record a submit do not reach it.
func Paths(ps ...path.Path) Selector {
	return Selector{kind: selPaths, paths: slices.Clone(ps)}
}

// Derived matches commits that change the given aggregate.
func Derived(k DerivedKind) Selector {
	return Selector{kind: selDerived, derived: k}
}

// Everything matches every commit. It is meant for inspectors and
// journals.
func Everything() Selector {
	return Selector{kind: selEverything}
}

// String renders the selector for logs and traces.
func (s Selector) String() string {
	switch s.kind {
	case selAllValues:
		return "values"
	case selPaths:
		parts := make([]string, len(s.paths))
		for i, p := range s.paths {
			parts[i] = p.String()
		}
		return "paths(" + strings.Join(parts, ",") + ")"
	case selDerived:
		return "derived(" + string(s.derived) + ")"
	case selEverything:
		return "everything"
	}
	return "invalid"
}

// Matches reports whether c should be delivered to a subscription with
// this selector.
func (s Selector) Matches(c registry.Change) bool {
	switch s.kind {
	case selAllValues:
		return c.ValuesChanged
	case selEverything:
		return true
	case selPaths:
		if !c.ValuesChanged {
			return false
		}
		for _, want := range s.paths {
			for _, got := range c.Paths {
				if want.Related(got) {
					return true
				}
			}
		}
		return false
	case selDerived:
		return derivedChanged(s.derived, c.Before, c.After)
	}
	return false
}

func derivedChanged(k DerivedKind, before, after registry.FormState) bool {
	switch k {
	case Errors:
		return !before.Errors.Equal(after.Errors)
	case DirtyFields:
		return !slices.Equal(before.DirtyFields, after.DirtyFields)
	case TouchedFields:
		return !slices.Equal(before.TouchedFields, after.TouchedFields)
	case IsDirty:
		return before.IsDirty != after.IsDirty
	case Status:
		return before.Status != after.Status || (before.DefaultsErr == nil) != (after.DefaultsErr == nil)
	case Validating:
		return before.IsValidating != after.IsValidating
	case Submission:
		return before.SubmitCount != after.SubmitCount ||
			before.IsSubmitted != after.IsSubmitted ||
			before.IsSubmitSuccessful != after.IsSubmitSuccessful
	}
	return false
}
