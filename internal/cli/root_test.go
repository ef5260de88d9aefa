package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginCUE = `package specs

form: login: {
	shape: {
		user:     string
		remember: bool
	}
	defaults: {
		user:     ""
		remember: false
	}
	fields: {
		user: required: "User is required"
	}
}
`

const youtubeCUE = `package specs

form: youtube: {
	mode: "onChange"
	shape: {
		username: string
		email:    string
		phNumbers: [...{number: string}]
		age: int
	}
	defaults: {
		username: "Batman"
		email:    ""
		phNumbers: [{number: ""}]
		age: 0
	}
	fields: {
		username: required: "Username is required"
		email: {
			required: "Email is required"
			pattern: {value: "^[^@ ]+@[^@ ]+$", message: "Invalid email format"}
		}
		age: {
			valueAsNumber: true
			validate: adult: {min: 18, message: "Too young"}
		}
	}
}
`

// writeSpecs creates a specs directory holding the given files.
func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "formstate", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"validate", "test", "trace", "repl"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestRequiredFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := []struct {
		command string
		flag    string
	}{
		{"trace", "db"},
		{"repl", "form"},
	}
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"login.cue": loginCUE})
	_, err := execute(t, "validate", dir, "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}
