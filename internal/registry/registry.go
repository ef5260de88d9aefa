package registry

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sort"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

type field struct {
	path  path.Path
	rules validation.Rules
}

// Registry owns the value tree of one form instance.
//
// All methods except Close must be called from the owner goroutine.
type Registry struct {
	shape  *path.Shape
	runner *validation.Runner
	pub    Publisher
	clock  Clock
	logger *slog.Logger
	queue  *eventQueue

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	status      Status
	defaultsErr error
	generation  int64
	resolved    bool

	values   value.Object
	baseline value.Object

	fields  map[string]*field
	tracked map[string]path.Path // written with ShouldDirty
	arrays  map[string]path.Path // bound field arrays
	touched map[string]bool
	errors  validation.Errors

	pending     map[string]int64 // path → run id of the in-flight async validation
	runID       int64
	outstanding int // helper goroutines whose result has not been applied

	deferred []func()

	submitCount int
	submitted   bool
	submitOK    bool

	outbox     []Change
	publishing bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithShape declares the value shape paths are resolved against.
func WithShape(s *path.Shape) Option {
	return func(r *Registry) {
		r.shape = s
	}
}

// WithPublisher sets the receiver of committed changes.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) {
		r.pub = p
	}
}

// Clock hands out commit sequence numbers. Next is only called from the
// owner goroutine.
type Clock interface {
	Next() int64
	Current() int64
}

// commitSeq is the default Clock: the first commit is 1.
type commitSeq int64

func (s *commitSeq) Next() int64 {
	*s++
	return int64(*s)
}

func (s *commitSeq) Current() int64 {
	return int64(*s)
}

// WithClock replaces the commit sequence source, for example with a clock
// shared by several registries or rewound between scenario runs.
func WithClock(c Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRunner sets the validation runner.
func WithRunner(v *validation.Runner) Option {
	return func(r *Registry) {
		r.runner = v
	}
}

// New creates a Ready registry with empty defaults. Call Initialize to
// install a defaults source.
func New(opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		clock:   new(commitSeq),
		logger:  slog.Default(),
		queue:   newEventQueue(),
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusReady,
		fields:  make(map[string]*field),
		tracked: make(map[string]path.Path),
		arrays:  make(map[string]path.Path),
		touched: make(map[string]bool),
		errors:  validation.Errors{},
		pending: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runner == nil {
		r.runner = validation.NewRunner(validation.WithLogger(r.logger))
	}

	zero := r.shape.ZeroTree()
	r.values = zero
	r.baseline = zero
	return r
}

// Close cancels in-flight async work. Results still in flight are dropped.
// Close may be called from any goroutine.
func (r *Registry) Close() {
	r.cancel()
	r.queue.Close()
}

// Shape returns the declared shape, which may be nil.
func (r *Registry) Shape() *path.Shape {
	return r.shape
}

// Status returns the defaults lifecycle state.
func (r *Registry) Status() Status {
	return r.status
}

// Value returns a copy of the value at p, or Null when nothing is stored
// there. p must resolve against the shape.
func (r *Registry) Value(p path.Path) (value.Value, error) {
	if !p.IsRoot() {
		if _, err := r.shape.Resolve(p); err != nil {
			return nil, err
		}
	}
	return value.Clone(r.valueAt(p)), nil
}

// Values returns a copy of the whole tree.
func (r *Registry) Values() value.Object {
	return r.values.Clone()
}

// Baseline returns a copy of the tree dirty state is compared against.
func (r *Registry) Baseline() value.Object {
	return r.baseline.Clone()
}

// State returns a snapshot of derived state.
func (r *Registry) State() FormState {
	return r.snapshot()
}

// Field returns the descriptor registered at p.
func (r *Registry) Field(p path.Path) (Descriptor, bool) {
	f, ok := r.fields[p.String()]
	if !ok {
		return Descriptor{}, false
	}
	return r.describe(f, r.dirtySet()), true
}

// Fields returns every descriptor in path order.
func (r *Registry) Fields() []Descriptor {
	dirty := r.dirtySet()
	out := make([]Descriptor, 0, len(r.fields))
	for _, f := range r.sortedFields() {
		out = append(out, r.describe(f, dirty))
	}
	return out
}

func (r *Registry) describe(f *field, dirty map[string]bool) Descriptor {
	key := f.path.String()
	return Descriptor{
		Path:    f.path,
		Rules:   f.rules,
		Touched: r.touched[key],
		Dirty:   dirty[key],
	}
}

func (r *Registry) sortedFields() []*field {
	keys := slices.Sorted(maps.Keys(r.fields))
	out := make([]*field, len(keys))
	for i, k := range keys {
		out[i] = r.fields[k]
	}
	return out
}

func (r *Registry) valueAt(p path.Path) value.Value {
	v, ok := path.Get(r.values, p)
	if !ok {
		return value.Null{}
	}
	return v
}

// checkPath rejects the root and paths the shape does not declare.
func (r *Registry) checkPath(p path.Path) error {
	if p.IsRoot() {
		return &path.InvalidPathError{
			Code:    path.ErrCodeInvalidPath,
			Message: "the root path cannot address a field",
		}
	}
	_, err := r.shape.Resolve(p)
	return err
}

// dirtySet compares every tracked location with the baseline: registered
// fields, paths written with ShouldDirty, bound arrays and the current
// leaves of bound arrays.
func (r *Registry) dirtySet() map[string]bool {
	out := make(map[string]bool)
	check := func(p path.Path) {
		key := p.String()
		if out[key] {
			return
		}
		cur, _ := path.Get(r.values, p)
		base, _ := path.Get(r.baseline, p)
		if !value.Equal(cur, base) {
			out[key] = true
		}
	}

	for _, f := range r.fields {
		check(f.path)
	}
	for _, p := range r.tracked {
		check(p)
	}
	for _, p := range r.arrays {
		check(p)
		if arr, ok := path.Get(r.values, p); ok {
			for _, leaf := range path.Leaves(p, arr) {
				check(leaf)
			}
		}
	}
	return out
}

func (r *Registry) snapshot() FormState {
	dirty := r.dirtySet()
	dirtyPaths := make([]string, 0, len(dirty))
	for k := range dirty {
		dirtyPaths = append(dirtyPaths, k)
	}
	sort.Strings(dirtyPaths)

	touched := make([]string, 0, len(r.touched))
	for k := range r.touched {
		touched = append(touched, k)
	}
	sort.Strings(touched)

	return FormState{
		Values:             r.values.Clone(),
		Errors:             r.errors.Clone(),
		TouchedFields:      touched,
		DirtyFields:        dirtyPaths,
		IsDirty:            len(dirtyPaths) > 0,
		IsValid:            len(r.errors) == 0,
		IsValidating:       len(r.pending) > 0,
		Status:             r.status,
		DefaultsErr:        r.defaultsErr,
		SubmitCount:        r.submitCount,
		IsSubmitted:        r.submitted,
		IsSubmitSuccessful: r.submitOK,
	}
}

// publish stamps a commit and hands it to the publisher. Changes raised by
// a subscriber during delivery wait in the outbox so order is preserved.
func (r *Registry) publish(kind Kind, paths []path.Path, valuesChanged bool, before FormState) {
	ch := Change{
		Seq:           r.clock.Next(),
		Kind:          kind,
		Paths:         paths,
		ValuesChanged: valuesChanged,
		Before:        before,
		After:         r.snapshot(),
	}
	r.logger.Debug("commit",
		"seq", ch.Seq,
		"kind", string(kind),
		"paths", pathStrings(paths),
	)

	if r.pub == nil {
		return
	}
	r.outbox = append(r.outbox, ch)
	if r.publishing {
		return
	}

	r.publishing = true
	defer func() { r.publishing = false }()
	for len(r.outbox) > 0 {
		next := r.outbox[0]
		r.outbox[0] = Change{}
		r.outbox = r.outbox[1:]
		r.pub.Publish(next)
	}
}

func pathStrings(ps []path.Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

// later queues op for replay once Loading ends.
func (r *Registry) later(op string, fn func() error) {
	r.deferred = append(r.deferred, func() {
		if err := fn(); err != nil {
			r.logger.Warn("queued write failed", "op", op, "error", err)
		}
	})
	r.logger.Debug("write queued while loading", "op", op, "queued", len(r.deferred))
}

func (r *Registry) replay() {
	if len(r.deferred) == 0 {
		return
	}
	queued := r.deferred
	r.deferred = nil
	r.logger.Debug("replaying queued writes", "count", len(queued))
	for _, fn := range queued {
		fn()
	}
}
