package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/formstate/pkg/value"
)

// Snapshot renders a result as canonical JSON: the scenario name, every
// commit, the final state and the final values.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make(value.Array, len(result.Trace))
	for i, ev := range result.Trace {
		paths := make(value.Array, len(ev.Paths))
		for j, p := range ev.Paths {
			paths[j] = value.String(p)
		}
		trace[i] = value.Object{
			"seq":           value.Int(ev.Seq),
			"kind":          value.String(ev.Kind),
			"paths":         paths,
			"valuesChanged": value.Bool(ev.ValuesChanged),
		}
	}

	snap := value.Object{
		"scenario": value.String(name),
		"trace":    trace,
		"state":    result.State,
		"values":   result.Values,
	}
	return value.MarshalCanonical(snap)
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
