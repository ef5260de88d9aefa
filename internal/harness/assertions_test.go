package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/pkg/value"
)

func sampleResult() *Result {
	r := NewResult()
	r.AddTrace(1, "init", []string{""}, true)
	r.AddTrace(2, "register", []string{"email"}, false)
	r.AddTrace(3, "set_value", []string{"email"}, true)
	r.AddTrace(4, "validate", []string{"email"}, false)
	r.Values = value.Object{
		"email": value.String("bruce"),
		"social": value.Object{
			"twitter":  value.String("@bruce"),
			"facebook": value.String(""),
		},
		"tags": value.Array{value.String("a"), value.String("b")},
	}
	r.State = value.Object{
		"errors": value.Object{
			"email": value.Object{"rule": value.String("pattern"), "message": value.String("Invalid email format")},
		},
		"isValid":     value.Bool(false),
		"submitCount": value.Int(0),
	}
	r.Items["phNumbers"] = []string{"first", "second"}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertValues, Expect: map[string]any{"social": map[string]any{"twitter": "@bruce"}}},
		{Type: AssertValues, Path: "tags", Expect: []any{"a", "b"}},
		{Type: AssertValues, Path: "social.twitter", Expect: "@bruce"},
		{Type: AssertErrors, Expect: map[string]any{"email": "pattern"}},
		{Type: AssertState, Expect: map[string]any{"isValid": false, "submitCount": 0}},
		{Type: AssertItems, Path: "phNumbers", Expect: []any{"first", "second"}},
		{Type: AssertKindOrder, Kinds: []string{"init", "validate"}},
		{Type: AssertKindCount, Kind: "register", Count: 1},
		{Type: AssertKindCount, Kind: "submit", Count: 0},
	}
	assert.Empty(t, EvaluateAssertions(sampleResult(), assertions))
}

func TestEvaluateAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"value mismatch", Assertion{Type: AssertValues, Path: "email", Expect: "bob"}, `Expected: "bob"`},
		{"missing value", Assertion{Type: AssertValues, Path: "nope", Expect: "x"}, "Actual: <missing>"},
		{"array length", Assertion{Type: AssertValues, Path: "tags", Expect: []any{"a"}}, "Assertion failed: values"},
		{"unexpected error", Assertion{Type: AssertErrors}, "Expected: map[]"},
		{"wrong rule", Assertion{Type: AssertErrors, Expect: map[string]any{"email": "required"}}, "map[email:required]"},
		{"state", Assertion{Type: AssertState, Expect: map[string]any{"isValid": true}}, "Assertion failed: state"},
		{"items", Assertion{Type: AssertItems, Path: "phNumbers", Expect: []any{"second", "first"}}, "[second first]"},
		{"items unknown array", Assertion{Type: AssertItems, Path: "emails", Expect: []any{}}, "no field array operations on emails"},
		{"order", Assertion{Type: AssertKindOrder, Kinds: []string{"validate", "register"}}, "register not found after [validate]"},
		{"count", Assertion{Type: AssertKindCount, Kind: "validate", Count: 2}, "1 commits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], "assertions[0]")
			assert.Contains(t, failures[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertKindCount,
		Expected: "2 submit commits",
		Actual:   "1 commits",
		Trace:    []TraceEvent{{Seq: 1, Kind: "init", Paths: []string{""}}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: kind_count")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[1] init")
}
