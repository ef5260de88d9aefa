package form

import (
	"context"
	"fmt"

	"github.com/roach88/formstate/internal/fieldarray"
	"github.com/roach88/formstate/internal/registry"
	"github.com/roach88/formstate/internal/subscription"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// Form is one form instance.
type Form struct {
	cfg      config
	reg      *registry.Registry
	hub      *subscription.Hub
	arrays   map[string]*fieldarray.Controller
	failures *subscription.Subscription
}

// New creates a form and installs its defaults. A Deferred source leaves
// the form Loading until Poll or Await applies the result. The only error
// is a defaults source that was already consumed.
func New(ctx context.Context, opts ...Option) (*Form, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	hub := subscription.NewHub(subscription.WithLogger(cfg.logger))
	regOpts := []registry.Option{
		registry.WithShape(cfg.shape),
		registry.WithPublisher(hub),
		registry.WithLogger(cfg.logger),
		registry.WithRunner(validation.NewRunner(validation.WithLogger(cfg.logger))),
	}
	if cfg.clock != nil {
		regOpts = append(regOpts, registry.WithClock(cfg.clock))
	}

	f := &Form{
		cfg:    cfg,
		reg:    registry.New(regOpts...),
		hub:    hub,
		arrays: make(map[string]*fieldarray.Controller),
	}
	f.failures = hub.Subscribe(subscription.Everything(), func(n subscription.Notification) {
		if n.Kind == registry.KindDefaultsFailed {
			f.cfg.observer.OnDefaultsFailed(context.Background(), n.State.DefaultsErr)
		}
	})

	for _, w := range cfg.watches {
		hub.Subscribe(w.sel, w.cb)
	}

	src := cfg.defaults
	if src == nil {
		src = registry.Literal(value.Object{})
	}
	if err := f.reg.Initialize(ctx, src); err != nil {
		f.Close()
		return nil, fmt.Errorf("initialize defaults: %w", err)
	}
	return f, nil
}

// Close stops async work. Results still in flight are dropped.
func (f *Form) Close() {
	f.failures.Unsubscribe()
	f.reg.Close()
}

// Register declares the field at p with its rules. Calling it again with
// the same rules changes nothing, so it is safe to call on every render.
func (f *Form) Register(p Path, rules Rules) error {
	return f.reg.Register(p, rules)
}

// Unregister removes the field at p.
func (f *Form) Unregister(p Path) error {
	return f.reg.Unregister(p)
}

// SetValue writes v at p with the requested side effects in one commit.
func (f *Form) SetValue(p Path, v value.Value, opts SetOptions) error {
	return f.reg.SetValue(p, v, opts)
}

// GetValue returns a copy of the value at p, Null when unset.
func (f *Form) GetValue(p Path) (value.Value, error) {
	return f.reg.Value(p)
}

// GetValues returns a copy of the whole value tree.
func (f *Form) GetValues() value.Object {
	return f.reg.Values()
}

// State returns the current derived state.
func (f *Form) State() State {
	return f.reg.State()
}

// Watch subscribes cb to commits matching sel.
func (f *Form) Watch(sel Selector, cb func(Notification)) *Subscription {
	return f.hub.Subscribe(sel, cb)
}

// Change records raw UI input for p: the input is coerced by the field's
// value-as rules, marked dirty and validated when the current mode asks
// for it.
func (f *Form) Change(p Path, raw string) error {
	var (
		rules   Rules
		touched bool
	)
	if d, ok := f.reg.Field(p); ok {
		rules, touched = d.Rules, d.Touched
	}

	return f.reg.SetValue(p, rules.Coerce(raw), SetOptions{
		ShouldDirty:    true,
		ShouldValidate: f.mode().onChange(touched),
	})
}

// Blur marks p touched and validates it when the current mode asks for it.
func (f *Form) Blur(p Path) error {
	return f.reg.Blur(p, f.mode().onBlur())
}

// mode is the validation mode in force: the re-validate mode once the form
// has been submitted.
func (f *Form) mode() Mode {
	if f.reg.State().IsSubmitted {
		return f.cfg.reMode
	}
	return f.cfg.mode
}

// Trigger validates the fields overlapping paths, or every field, waits
// for async predicates and reports whether those fields are now valid.
func (f *Form) Trigger(ctx context.Context, paths ...Path) (bool, error) {
	if err := f.reg.Validate(paths...); err != nil {
		return false, err
	}
	if err := f.reg.Await(ctx); err != nil {
		return false, err
	}

	errs := f.reg.State().Errors
	if len(paths) == 0 {
		return len(errs) == 0, nil
	}
	for key := range errs {
		ep, err := ParsePath(key)
		if err != nil {
			continue
		}
		for _, p := range paths {
			if ep.Related(p) {
				return false, nil
			}
		}
	}
	return true, nil
}

// HandleSubmit validates every field and calls onValid with the values
// when there is no error, or onInvalid (if not nil) with the errors.
// Pending defaults and async validations are awaited first. Either way
// every field is marked touched and the submit counters advance.
//
// Validation failures are never returned as errors. The returned error
// comes from ctx or from onValid.
func (f *Form) HandleSubmit(ctx context.Context, onValid func(context.Context, value.Object) error, onInvalid func(context.Context, Errors)) error {
	if err := f.reg.Await(ctx); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	errs, err := f.reg.ValidateAll(ctx)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	values := f.reg.Values()
	var cbErr error
	if len(errs) == 0 {
		if onValid != nil {
			cbErr = onValid(ctx, values)
		}
	} else if onInvalid != nil {
		onInvalid(ctx, errs.Clone())
	}

	f.reg.CompleteSubmit(len(errs) == 0 && cbErr == nil)
	f.cfg.observer.OnSubmit(ctx, values, errs, cbErr)
	return cbErr
}

// FieldArray returns the controller for the array at p, creating it on
// first use.
func (f *Form) FieldArray(p Path) (*FieldArray, error) {
	key := p.String()
	if c, ok := f.arrays[key]; ok {
		return c, nil
	}
	c, err := fieldarray.New(f.reg, p, f.cfg.ids,
		fieldarray.WithLogger(f.cfg.logger),
		fieldarray.WithStaleHandler(func(err error) {
			f.cfg.observer.OnStaleReference(context.Background(), key, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	f.arrays[key] = c
	return c, nil
}

// Reset re-initialises the form from src, or from the current defaults
// when src is nil, clearing touched, errors and submit state.
func (f *Form) Reset(ctx context.Context, src Source) error {
	return f.reg.Reset(ctx, src)
}

// SetError sets a manual error at p.
func (f *Form) SetError(p Path, rule, message string) error {
	return f.reg.SetError(p, rule, message)
}

// ClearErrors clears errors at and below paths, or all errors.
func (f *Form) ClearErrors(paths ...Path) error {
	return f.reg.ClearErrors(paths...)
}

// Poll applies async results that have arrived.
func (f *Form) Poll() int {
	return f.reg.Poll()
}

// Await applies async results until none is outstanding or ctx ends.
func (f *Form) Await(ctx context.Context) error {
	return f.reg.Await(ctx)
}

// Fields lists the registered field paths in order.
func (f *Form) Fields() []Path {
	descs := f.reg.Fields()
	out := make([]Path, len(descs))
	for i, d := range descs {
		out[i] = d.Path
	}
	return out
}
