package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/formstate/internal/journal"
	"github.com/roach88/formstate/internal/schema"
	"github.com/roach88/formstate/pkg/form"
	"github.com/roach88/formstate/pkg/value"
)

const replHelp = `Commands:
  get [path]                        print the value tree or a subtree
  set <path> <json> [dirty] [touch] [validate]
  change <path> <raw>               UI input, coerced by the field's rules
  blur <path>
  trigger [path...]                 validate and report validity
  submit
  reset
  error <path> <rule> [message]     record a manual error
  clear [path...]                   clear errors
  errors | state | fields
  append <path> <json>   prepend <path> <json>   insert <path> <index> <json>
  remove <path> <index>  move <path> <from> <to>  swap <path> <a> <b>
  items <path>
  watch <name> <values|derived|path...>   start a consumer
  unwatch <name>
  renders                           notifications delivered per consumer
  help | quit`

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Form     string
	Database string
	Session  string

	// input replaces the terminal, for tests.
	input lineReader
}

// lineReader is the part of *liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl <specs-dir>",
		Short: "Drive a form interactively",
		Long: `Instantiate a form from its definition and drive it from a prompt.

Consumers started with watch count the notifications they receive, so the
effect of each operation on every consumer is visible with renders.

Examples:
  formstate repl ./specs --form youtube
  formstate repl ./specs --form youtube --db ./journal.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Form, "form", "", "form to instantiate (required)")
	_ = cmd.MarkFlagRequired("form")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every commit in this SQLite journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session ID (default: a new UUIDv7)")

	return cmd
}

func runRepl(opts *ReplOptions, specsDir string, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := cmd.OutOrStdout()
	logger := opts.logger(cmd.ErrOrStderr())

	forms, errs := schema.Load(specsDir, nil)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load definitions", errors.Join(errs...))
	}
	def, ok := schema.Find(forms, opts.Form)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("form %q not defined in %s", opts.Form, specsDir))
	}

	formOpts := []form.Option{form.WithLogger(logger)}
	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()

		session := opts.Session
		if session == "" {
			session = uuid.Must(uuid.NewV7()).String()
		}
		rec, err := j.NewRecorder(ctx, session, def.Name, journal.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start session", err)
		}
		formOpts = append(formOpts, form.WithWatch(form.Everything(), rec.Record))
		fmt.Fprintf(out, "recording session %s\n", session)
		defer func() {
			if err := rec.Err(); err != nil {
				logger.Error("journal write failed", "session", session, "error", err)
			}
		}()
	}

	f, err := form.FromSchema(ctx, def, formOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create form", err)
	}
	defer f.Close()

	in := opts.input
	if in == nil {
		ln := liner.NewLiner()
		ln.SetCtrlCAborts(true)
		in = ln

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigc)
		go func() {
			if _, ok := <-sigc; ok {
				cancel()
				ln.Close()
			}
		}()
	}
	defer in.Close()

	d := newDriver(f, out)
	fmt.Fprintf(out, "form %s: %d fields, type help for commands\n", def.Name, len(def.Fields))
	prompt := def.Name + "> "
	for {
		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		in.AppendHistory(line)

		quit, err := d.exec(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// consumer is a named subscription standing in for a rendering component.
type consumer struct {
	name string
	sub  *form.Subscription
}

// driver executes repl commands against one form.
type driver struct {
	form      *form.Form
	out       io.Writer
	arrays    map[string]*form.FieldArray
	consumers []*consumer
}

func newDriver(f *form.Form, out io.Writer) *driver {
	return &driver{form: f, out: out, arrays: make(map[string]*form.FieldArray)}
}

// exec runs one command line. quit is true for quit and exit.
func (d *driver) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	f := d.form
	defer f.Poll()

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(d.out, replHelp)
	case "get":
		if len(args) == 0 {
			return false, d.print(f.GetValues())
		}
		p, err := form.ParsePath(args[0])
		if err != nil {
			return false, err
		}
		v, err := f.GetValue(p)
		if err != nil {
			return false, err
		}
		return false, d.print(v)
	case "set":
		p, v, err := pathAndValue(args)
		if err != nil {
			return false, err
		}
		var opts form.SetOptions
		for _, flag := range args[2:] {
			switch flag {
			case "dirty":
				opts.ShouldDirty = true
			case "touch":
				opts.ShouldTouch = true
			case "validate":
				opts.ShouldValidate = true
			default:
				return false, fmt.Errorf("unknown set flag %q", flag)
			}
		}
		return false, f.SetValue(p, v, opts)
	case "change":
		p, err := pathArg(args)
		if err != nil {
			return false, err
		}
		return false, f.Change(p, restOfLine(line, 2))
	case "blur":
		p, err := pathArg(args)
		if err != nil {
			return false, err
		}
		return false, f.Blur(p)
	case "trigger":
		paths, err := parsePathList(args)
		if err != nil {
			return false, err
		}
		valid, err := f.Trigger(ctx, paths...)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "valid: %t\n", valid)
	case "submit":
		err := f.HandleSubmit(ctx,
			func(_ context.Context, values value.Object) error {
				fmt.Fprint(d.out, "submitted ")
				return d.print(values)
			},
			func(_ context.Context, errs form.Errors) {
				fmt.Fprintf(d.out, "invalid: %d error(s)\n", len(errs))
			},
		)
		return false, err
	case "reset":
		return false, f.Reset(ctx, nil)
	case "error":
		if len(args) < 2 {
			return false, errors.New("usage: error <path> <rule> [message]")
		}
		p, err := form.ParsePath(args[0])
		if err != nil {
			return false, err
		}
		return false, f.SetError(p, args[1], restOfLine(line, 3))
	case "clear":
		paths, err := parsePathList(args)
		if err != nil {
			return false, err
		}
		return false, f.ClearErrors(paths...)
	case "errors":
		d.printErrors()
	case "state":
		d.printState()
	case "fields":
		for _, p := range f.Fields() {
			fmt.Fprintln(d.out, p.String())
		}
	case "watch":
		return false, d.watch(args)
	case "unwatch":
		return false, d.unwatch(args)
	case "renders":
		for _, c := range d.consumers {
			fmt.Fprintf(d.out, "%s %s: %d\n", c.name, c.sub.Selector(), c.sub.Delivered())
		}
	case "append", "prepend", "insert", "remove", "move", "swap", "items":
		return false, d.array(cmd, args)
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}
	return false, nil
}

func (d *driver) array(cmd string, args []string) error {
	p, err := pathArg(args)
	if err != nil {
		return err
	}
	fa, ok := d.arrays[p.String()]
	if !ok {
		fa, err = d.form.FieldArray(p)
		if err != nil {
			return err
		}
		d.arrays[p.String()] = fa
	}

	ints := func(n int) ([]int, error) {
		if len(args) < 1+n {
			return nil, fmt.Errorf("usage: %s <path> needs %d index argument(s)", cmd, n)
		}
		out := make([]int, n)
		for i := range out {
			v, err := strconv.Atoi(args[1+i])
			if err != nil {
				return nil, fmt.Errorf("index %q: %w", args[1+i], err)
			}
			out[i] = v
		}
		return out, nil
	}

	switch cmd {
	case "append", "prepend":
		_, v, err := pathAndValue(args)
		if err != nil {
			return err
		}
		var id string
		if cmd == "append" {
			id, err = fa.Append(v)
		} else {
			id, err = fa.Prepend(v)
		}
		if err == nil {
			fmt.Fprintf(d.out, "id: %s\n", id)
		}
		return err
	case "insert":
		idx, err := ints(1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("usage: insert <path> <index> <json>")
		}
		v, err := value.Unmarshal([]byte(args[2]))
		if err != nil {
			return err
		}
		id, err := fa.Insert(idx[0], v)
		if err == nil {
			fmt.Fprintf(d.out, "id: %s\n", id)
		}
		return err
	case "remove":
		idx, err := ints(1)
		if err != nil {
			return err
		}
		return fa.Remove(idx[0])
	case "move":
		idx, err := ints(2)
		if err != nil {
			return err
		}
		return fa.Move(idx[0], idx[1])
	case "swap":
		idx, err := ints(2)
		if err != nil {
			return err
		}
		return fa.Swap(idx[0], idx[1])
	}

	for _, item := range fa.Fields() {
		fmt.Fprintf(d.out, "%d %s\n", item.Index, item.ID)
	}
	return nil
}

func (d *driver) watch(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: watch <name> <values|derived|path...>")
	}
	name := args[0]
	for _, c := range d.consumers {
		if c.name == name {
			return fmt.Errorf("consumer %s already exists", name)
		}
	}

	var sel form.Selector
	if args[1] == "values" {
		sel = form.AllValues()
	} else if k, err := form.ParseDerivedKind(args[1]); err == nil {
		sel = form.Derived(k)
	} else {
		paths, err := parsePathList(args[1:])
		if err != nil {
			return err
		}
		sel = form.Paths(paths...)
	}

	sub := d.form.Watch(sel, func(form.Notification) {})
	d.consumers = append(d.consumers, &consumer{name: name, sub: sub})
	return nil
}

func (d *driver) unwatch(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: unwatch <name>")
	}
	for i, c := range d.consumers {
		if c.name == args[0] {
			c.sub.Unsubscribe()
			d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no consumer %s", args[0])
}

func (d *driver) printErrors() {
	st := d.form.State()
	if len(st.Errors) == 0 {
		fmt.Fprintln(d.out, "no errors")
		return
	}
	for _, key := range st.Errors.Paths() {
		e := st.Errors[key]
		fmt.Fprintf(d.out, "%s: %s (%s)\n", key, e.Message, e.Rule)
	}
}

func (d *driver) printState() {
	st := d.form.State()
	fmt.Fprintf(d.out, "status: %s\n", st.Status)
	fmt.Fprintf(d.out, "dirty: %t %v\n", st.IsDirty, st.DirtyFields)
	fmt.Fprintf(d.out, "touched: %v\n", st.TouchedFields)
	fmt.Fprintf(d.out, "valid: %t validating: %t\n", st.IsValid, st.IsValidating)
	fmt.Fprintf(d.out, "submitted: %t count: %d successful: %t\n", st.IsSubmitted, st.SubmitCount, st.IsSubmitSuccessful)
	if st.DefaultsErr != nil {
		fmt.Fprintf(d.out, "defaults: %v\n", st.DefaultsErr)
	}
}

func (d *driver) print(v value.Value) error {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, string(data))
	return nil
}

func pathArg(args []string) (form.Path, error) {
	if len(args) == 0 {
		return form.Path{}, errors.New("path argument required")
	}
	return form.ParsePath(args[0])
}

func pathAndValue(args []string) (form.Path, value.Value, error) {
	if len(args) < 2 {
		return form.Path{}, nil, errors.New("path and JSON value required")
	}
	p, err := form.ParsePath(args[0])
	if err != nil {
		return form.Path{}, nil, err
	}
	v, err := value.Unmarshal([]byte(args[1]))
	if err != nil {
		return form.Path{}, nil, fmt.Errorf("value: %w", err)
	}
	return p, v, nil
}

func parsePathList(args []string) ([]form.Path, error) {
	paths := make([]form.Path, 0, len(args))
	for _, a := range args {
		p, err := form.ParsePath(a)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// restOfLine returns line after its first n whitespace-separated words,
// preserving inner spacing.
func restOfLine(line string, n int) string {
	rest := strings.TrimSpace(line)
	for range n {
		i := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' })
		if i < 0 {
			return ""
		}
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	return rest
}
