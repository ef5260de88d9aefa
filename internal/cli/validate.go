package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/formstate/internal/schema"
)

// FormSummary describes one compiled definition.
type FormSummary struct {
	Name           string `json:"name"`
	Mode           string `json:"mode"`
	ReValidateMode string `json:"reValidateMode"`
	Fields         int    `json:"fields"`
}

// ValidationIssue is one definition error.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Forms  []FormSummary     `json:"forms"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	for _, f := range r.Forms {
		fmt.Fprintf(&b, "✓ %s (%d fields, mode %s)\n", f.Name, f.Fields, f.Mode)
	}
	for _, e := range r.Errors {
		b.WriteString("✗ ")
		if e.File != "" {
			fmt.Fprintf(&b, "%s:%d:%d: ", e.File, e.Line, e.Column)
		}
		if e.Field != "" {
			fmt.Fprintf(&b, "%s: ", e.Field)
		}
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	if r.Valid {
		fmt.Fprintf(&b, "%d form(s) valid", len(r.Forms))
	} else {
		fmt.Fprintf(&b, "%d error(s)", len(r.Errors))
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Compile form definitions and report errors",
		Long: `Compile every form definition in a CUE package and report all errors.

Shapes, defaults, modes and rules are checked. Predicates that reference
Go code with ref cannot be resolved from the command line and are
reported as unknown.

Exit codes:
  0 - All definitions compile
  1 - One or more definitions are invalid
  2 - Command error (missing directory, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(specsDir); err != nil {
		msg := fmt.Sprintf("specs directory not found: %s", specsDir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil, nil)
		return NewExitError(ExitCommandError, msg)
	}

	forms, errs := schema.Load(specsDir, nil)
	result := ValidationResult{
		Valid: len(errs) == 0,
		Forms: make([]FormSummary, 0, len(forms)),
	}
	for _, f := range forms {
		formatter.VerboseLog("compiled form %s", f.Name)
		result.Forms = append(result.Forms, FormSummary{
			Name:           f.Name,
			Mode:           modeOrDefault(f.Mode),
			ReValidateMode: f.ReValidateMode,
			Fields:         len(f.Fields),
		})
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, issueFromError(err))
	}

	if !result.Valid {
		if formatter.JSON() {
			_ = formatter.Error(ErrCodeCompile, fmt.Sprintf("%d error(s)", len(errs)), result, nil)
		} else {
			fmt.Fprintln(formatter.Writer, result)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d definition error(s)", len(errs)))
	}
	return formatter.Success(result)
}

func issueFromError(err error) ValidationIssue {
	var cerr *schema.CompileError
	if !errors.As(err, &cerr) {
		return ValidationIssue{Message: err.Error()}
	}
	issue := ValidationIssue{Field: cerr.Field, Message: cerr.Message}
	if cerr.Pos.IsValid() {
		issue.File = cerr.Pos.Filename()
		issue.Line = cerr.Pos.Line()
		issue.Column = cerr.Pos.Column()
	}
	return issue
}

func modeOrDefault(m string) string {
	if m == "" {
		return "onSubmit"
	}
	return m
}
