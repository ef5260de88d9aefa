package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/login_submit.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestSnapshot_IsCanonical(t *testing.T) {
	r := sampleResult()
	first, err := Snapshot("sample", r)
	require.NoError(t, err)
	second, err := Snapshot("sample", r)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(string(first), `{"scenario":"sample","state":{`))
	assert.Contains(t, string(first), `{"kind":"init","paths":[""],"seq":1,"valuesChanged":true}`)
}
