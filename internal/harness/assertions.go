package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/pkg/value"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", ev.Seq, ev.Kind, ev.Paths)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertValues:
		return assertValues(result, a)
	case AssertErrors:
		return assertErrors(result, a)
	case AssertState:
		return assertSubset(AssertState, result.State, a.Expect)
	case AssertItems:
		return assertItems(result, a)
	case AssertKindOrder:
		return assertKindOrder(result.Trace, a)
	case AssertKindCount:
		return assertKindCount(result.Trace, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertValues compares the subtree at a.Path with a.Expect using subset
// semantics for objects.
func assertValues(result *Result, a Assertion) error {
	var actual value.Value = result.Values
	if a.Path != "" {
		p, err := path.Parse(a.Path)
		if err != nil {
			return err
		}
		actual, _ = path.Get(result.Values, p)
	}
	return assertSubset(AssertValues, actual, a.Expect)
}

func assertSubset(kind string, actual value.Value, expect any) error {
	want, err := value.FromGo(expect)
	if err != nil {
		return fmt.Errorf("%s: expect: %w", kind, err)
	}
	if !subset(want, actual) {
		return &AssertionError{
			Type:     kind,
			Expected: render(want),
			Actual:   render(actual),
		}
	}
	return nil
}

// subset reports whether actual matches want. Objects in want may omit
// keys; arrays must match in length.
func subset(want, actual value.Value) bool {
	switch w := want.(type) {
	case value.Object:
		a, ok := actual.(value.Object)
		if !ok {
			return false
		}
		for k, wv := range w {
			if !subset(wv, a[k]) {
				return false
			}
		}
		return true
	case value.Array:
		a, ok := actual.(value.Array)
		if !ok || len(a) != len(w) {
			return false
		}
		for i := range w {
			if !subset(w[i], a[i]) {
				return false
			}
		}
		return true
	}
	return value.Equal(want, actual)
}

// assertErrors compares the final path-to-rule mapping exactly. An
// absent expect means no errors.
func assertErrors(result *Result, a Assertion) error {
	want := map[string]string{}
	if a.Expect != nil {
		m, ok := a.Expect.(map[string]any)
		if !ok {
			return fmt.Errorf("errors: expect must map paths to rule names")
		}
		for k, v := range m {
			want[k] = fmt.Sprint(v)
		}
	}

	got := map[string]string{}
	if errs, ok := result.State["errors"].(value.Object); ok {
		for k, e := range errs {
			if obj, ok := e.(value.Object); ok {
				if rule, ok := obj["rule"].(value.String); ok {
					got[k] = string(rule)
				}
			}
		}
	}

	if !mapsEqual(want, got) {
		return &AssertionError{
			Type:     AssertErrors,
			Expected: fmt.Sprint(want),
			Actual:   fmt.Sprint(got),
		}
	}
	return nil
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func assertItems(result *Result, a Assertion) error {
	var want []string
	if list, ok := a.Expect.([]any); ok {
		for _, v := range list {
			want = append(want, fmt.Sprint(v))
		}
	}
	got, ok := result.Items[a.Path]
	if !ok {
		return fmt.Errorf("items: no field array operations on %s", a.Path)
	}
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     AssertItems,
			Expected: fmt.Sprint(want),
			Actual:   fmt.Sprint(got),
		}
	}
	return nil
}

// assertKindOrder checks that the kinds appear in order. Other commits may
// sit between them.
func assertKindOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     AssertKindOrder,
			Expected: fmt.Sprintf("commits in order: %v", a.Kinds),
			Actual:   fmt.Sprintf("%s not found after %v", a.Kinds[next], a.Kinds[:next]),
			Trace:    trace,
		}
	}
	return nil
}

func assertKindCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertKindCount,
			Expected: fmt.Sprintf("%d %s commits", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d commits", count),
			Trace:    trace,
		}
	}
	return nil
}

func render(v value.Value) string {
	if v == nil {
		return "<missing>"
	}
	b, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
