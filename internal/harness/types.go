package harness

import (
	"github.com/roach88/formstate/pkg/value"
)

// TraceEvent is one commit as seen by the harness.
type TraceEvent struct {
	Seq           int64    `json:"seq"`
	Kind          string   `json:"kind"`
	Paths         []string `json:"paths"`
	ValuesChanged bool     `json:"valuesChanged"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as declared and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists every commit, including the initial one.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the final derived state, values excluded.
	State value.Object `json:"state"`

	// Values is the final value tree.
	Values value.Object `json:"values"`

	// Items maps each field array used by the scenario to its item IDs.
	Items map[string][]string `json:"items,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Items:  make(map[string][]string),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a commit.
func (r *Result) AddTrace(seq int64, kind string, paths []string, valuesChanged bool) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:           seq,
		Kind:          kind,
		Paths:         paths,
		ValuesChanged: valuesChanged,
	})
}
