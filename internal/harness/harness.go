package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/formstate/internal/journal"
	"github.com/roach88/formstate/internal/schema"
	"github.com/roach88/formstate/internal/testutil"
	"github.com/roach88/formstate/pkg/form"
	"github.com/roach88/formstate/pkg/value"
)

// ErrDefaultsUnavailable is what a failing defaults source returns.
var ErrDefaultsUnavailable = errors.New("defaults unavailable")

type config struct {
	catalog schema.Catalog
	journal *journal.Journal
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*config)

// WithCatalog sets the Go predicates definitions may reference.
func WithCatalog(c schema.Catalog) Option {
	return func(cfg *config) {
		cfg.catalog = c
	}
}

// WithJournal records every commit in j under a session named after the
// scenario.
func WithJournal(j *journal.Journal) Option {
	return func(cfg *config) {
		cfg.journal = j
	}
}

// WithLogger sets the form's logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// harness holds one scenario run.
type harness struct {
	form   *form.Form
	rules  map[string]form.Rules
	arrays map[string]*form.FieldArray
}

// Run executes a scenario against a fresh form. The logical clock starts
// at zero and item IDs come from the scenario, so runs are reproducible.
// Outstanding async work is settled before assertions are evaluated.
//
// Step and assertion failures are reported in the Result. The returned
// error is for scenarios that cannot run at all.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	def, err := loadDefinition(s, cfg.catalog)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	formOpts := []form.Option{
		form.WithLogger(cfg.logger),
		form.WithClock(testutil.NewDeterministicClock()),
		form.WithIDGenerator(idGenerator(s.IDs)),
		form.WithDefaults(defaultsSource(s.Defaults, def.Defaults)),
		form.WithWatch(form.Everything(), func(n form.Notification) {
			paths := make([]string, len(n.Paths))
			for i, p := range n.Paths {
				paths[i] = p.String()
			}
			result.AddTrace(n.Seq, string(n.Kind), paths, n.ValuesChanged)
		}),
	}
	if s.Mode != "" {
		m, err := form.ParseMode(s.Mode)
		if err != nil {
			return nil, err
		}
		formOpts = append(formOpts, form.WithMode(m))
	}
	if s.ReValidateMode != "" {
		m, err := form.ParseMode(s.ReValidateMode)
		if err != nil {
			return nil, err
		}
		formOpts = append(formOpts, form.WithReValidateMode(m))
	}

	var rec *journal.Recorder
	if cfg.journal != nil {
		rec, err = cfg.journal.NewRecorder(ctx, s.Name, def.Name, journal.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		formOpts = append(formOpts, form.WithWatch(form.Everything(), rec.Record))
	}

	f, err := form.FromSchema(ctx, def, formOpts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := &harness{
		form:   f,
		rules:  make(map[string]form.Rules),
		arrays: make(map[string]*form.FieldArray),
	}
	for _, fd := range def.Fields {
		h.rules[fd.Path.String()] = fd.Rules
	}
	for i, step := range s.Steps {
		if err := h.execute(ctx, step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %s %s: %v", i, step.Op, step.Path, err))
		}
	}

	if err := f.Await(ctx); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	if rec != nil {
		if err := rec.Err(); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}

	result.State = journal.StateValue(f.State())
	result.Values = f.GetValues()
	for p, fa := range h.arrays {
		ids := []string{}
		for _, item := range fa.Fields() {
			ids = append(ids, item.ID)
		}
		result.Items[p] = ids
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadDefinition(s *Scenario, catalog schema.Catalog) (*schema.Form, error) {
	var defs []*schema.Form
	for _, spec := range s.Specs {
		data, err := os.ReadFile(spec)
		if err != nil {
			return nil, fmt.Errorf("read spec: %w", err)
		}
		forms, err := schema.CompileString(string(data), spec, catalog)
		if err != nil {
			return nil, err
		}
		defs = append(defs, forms...)
	}

	def, ok := schema.Find(defs, s.Form)
	if !ok {
		return nil, fmt.Errorf("form %q not defined in %v", s.Form, s.Specs)
	}
	return def, nil
}

// listGenerator hands out the scenario's IDs, then item-N.
type listGenerator struct {
	ids      []string
	fallback form.IDGenerator
}

func idGenerator(ids []string) form.IDGenerator {
	return &listGenerator{ids: ids, fallback: form.NewSequenceGenerator("item")}
}

func (g *listGenerator) Generate() string {
	if len(g.ids) == 0 {
		return g.fallback.Generate()
	}
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id
}

func defaultsSource(mode string, defaults value.Object) form.Source {
	producer := func(context.Context) (value.Object, error) {
		return defaults.Clone(), nil
	}
	switch mode {
	case DefaultsSync:
		return form.Func(producer)
	case DefaultsDeferred:
		return form.Deferred(producer)
	case DefaultsFailing:
		return form.Func(func(context.Context) (value.Object, error) {
			return nil, ErrDefaultsUnavailable
		})
	}
	return form.Literal(defaults)
}
