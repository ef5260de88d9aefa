package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "smallest valid scenario"
specs: [testdata/specs/login.cue]
form: login
steps:
  - op: set
    path: user
    value: bob
assertions:
  - type: values
    expect: { user: bob }
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "login", s.Form)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, OpSet, s.Steps[0].Op)
	assert.Equal(t, "bob", s.Steps[0].Value)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, map[string]any{"user": "bob"}, s.Assertions[0].Expect)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: minimalScenario + "extra: true\n",
			want: "field extra not found",
		},
		{
			name: "missing form",
			yaml: `
name: x
description: d
specs: [a.cue]
steps: [{op: await}]
assertions: [{type: errors}]
`,
			want: "form is required",
		},
		{
			name: "unknown op",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: explode}]
assertions: [{type: errors}]
`,
			want: `unknown op "explode"`,
		},
		{
			name: "path required",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: set, value: 1}]
assertions: [{type: errors}]
`,
			want: "path is required for set",
		},
		{
			name: "unknown fail",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: remove, path: a, fail: boom}]
assertions: [{type: errors}]
`,
			want: `unknown fail "boom"`,
		},
		{
			name: "unknown defaults",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
defaults: lazy
steps: [{op: await}]
assertions: [{type: errors}]
`,
			want: `unknown defaults mode "lazy"`,
		},
		{
			name: "kind_order without kinds",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: await}]
assertions: [{type: kind_order}]
`,
			want: "kinds list is required",
		},
		{
			name: "items without path",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: await}]
assertions: [{type: items, expect: [a]}]
`,
			want: "path is required for items",
		},
		{
			name: "unknown assertion",
			yaml: `
name: x
description: d
specs: [a.cue]
form: f
steps: [{op: await}]
assertions: [{type: trace_contains}]
`,
			want: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesSpecsAgainstFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/login_submit.yaml")
	require.NoError(t, err)

	require.Len(t, s.Specs, 1)
	assert.Equal(t, filepath.Join("testdata", "specs", "login.cue"), s.Specs[0])
}

func TestLoadScenario_MissingSpec(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(file, []byte(minimalScenario), 0o644))

	_, err := LoadScenario(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
