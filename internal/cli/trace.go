package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/formstate/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Form     string // optional - filter sessions by form
	Session  string // optional - show the commits of one session
	Verify   bool   // recompute digests
}

// TraceEvent is one commit in the timeline.
type TraceEvent struct {
	Seq           int64    `json:"seq"`
	Kind          string   `json:"kind"`
	Paths         []string `json:"paths"`
	ValuesChanged bool     `json:"valuesChanged"`
	StateDigest   string   `json:"stateDigest"`
	ValuesDigest  string   `json:"valuesDigest"`
	Values        string   `json:"values,omitempty"`
}

// TraceResult holds the output of trace.
type TraceResult struct {
	Sessions []journal.Session `json:"sessions,omitempty"`
	Session  string            `json:"session,omitempty"`
	Timeline []TraceEvent      `json:"timeline,omitempty"`
	Stats    TraceStats        `json:"stats"`
}

// TraceStats summarises a timeline.
type TraceStats struct {
	Commits       int            `json:"commits"`
	ValueCommits  int            `json:"valueCommits"`
	Kinds         map[string]int `json:"kinds"`
	Verified      bool           `json:"verified"`
	Discrepancies []string       `json:"discrepancies,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded form sessions",
		Long: `Inspect the commit journal written by test --db or repl --db.

Without --session, lists the recorded sessions. With --session, prints the
commit timeline of that session. --verify recomputes the state and value
digests of every commit.

Examples:
  formstate trace --db ./journal.db
  formstate trace --db ./journal.db --form youtube
  formstate trace --db ./journal.db --session login_submit --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Form, "form", "", "only sessions of this form")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to print")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute commit digests")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open would create a missing file.
	if _, err := os.Stat(opts.Database); err != nil {
		msg := fmt.Sprintf("journal not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, msg, nil, nil)
		return NewExitError(ExitCommandError, msg)
	}
	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	if opts.Session == "" {
		sessions, err := j.Sessions(ctx, opts.Form)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		result := TraceResult{Sessions: sessions}
		for _, s := range sessions {
			result.Stats.Commits += s.Commits
		}
		if formatter.JSON() {
			return formatter.Success(result)
		}
		if len(sessions) == 0 {
			formatter.Textf("No sessions recorded.")
			return nil
		}
		for _, s := range sessions {
			formatter.Textf("%s\t%s\t%d commits", s.ID, s.Form, s.Commits)
		}
		return nil
	}

	entries, err := j.Read(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if len(entries) == 0 {
		msg := fmt.Sprintf("no commits found for session: %s", opts.Session)
		_ = formatter.Error(ErrCodeJournal, msg, nil, nil)
		return NewExitError(ExitCommandError, msg)
	}

	result := buildTrace(opts.Session, entries, opts.Verify, opts.Verbose)
	if len(result.Stats.Discrepancies) > 0 {
		if formatter.JSON() {
			_ = formatter.Error(ErrCodeDigest, "digest mismatch", result, nil)
		} else {
			outputTraceText(formatter, result)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d commit(s) failed verification", len(result.Stats.Discrepancies)))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter, result)
	return nil
}

func buildTrace(session string, entries []journal.Entry, verify, withValues bool) TraceResult {
	result := TraceResult{
		Session:  session,
		Timeline: make([]TraceEvent, 0, len(entries)),
		Stats:    TraceStats{Kinds: make(map[string]int), Verified: verify},
	}
	for _, e := range entries {
		ev := TraceEvent{
			Seq:           e.Seq,
			Kind:          e.Kind,
			Paths:         e.Paths,
			ValuesChanged: e.ValuesChanged,
			StateDigest:   e.StateDigest,
			ValuesDigest:  e.ValuesDigest,
		}
		if withValues && e.ValuesChanged {
			ev.Values = e.Values
		}
		result.Timeline = append(result.Timeline, ev)

		result.Stats.Commits++
		result.Stats.Kinds[e.Kind]++
		if e.ValuesChanged {
			result.Stats.ValueCommits++
		}
		if verify {
			if err := e.Verify(); err != nil {
				result.Stats.Discrepancies = append(result.Stats.Discrepancies, err.Error())
			}
		}
	}
	return result
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	formatter.Textf("Session: %s", result.Session)
	formatter.Textf("")
	for _, ev := range result.Timeline {
		paths := strings.Join(ev.Paths, ",")
		if paths == "" {
			paths = "<root>"
		}
		marker := " "
		if ev.ValuesChanged {
			marker = "*"
		}
		formatter.Textf("[%d]%s %-14s %s", ev.Seq, marker, ev.Kind, paths)
		if ev.Values != "" {
			formatter.Textf("      %s", ev.Values)
		}
	}
	formatter.Textf("")
	formatter.Textf("%d commits, %d changed values", result.Stats.Commits, result.Stats.ValueCommits)
	if result.Stats.Verified {
		if len(result.Stats.Discrepancies) == 0 {
			formatter.Textf("✓ all digests verified")
		}
		for _, d := range result.Stats.Discrepancies {
			formatter.Textf("✗ %s", d)
		}
	}
}
