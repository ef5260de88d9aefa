package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
)

// Validate re-runs the rules of every registered field overlapping the
// given paths, or of every field when called without paths, and commits
// the settled outcomes. Fields with asynchronous predicates keep their
// current error until the run settles through Poll or Await.
func (r *Registry) Validate(paths ...path.Path) error {
	for _, p := range paths {
		if err := r.checkPath(p); err != nil {
			return err
		}
	}
	if r.status == StatusLoading {
		r.later("validate", func() error { return r.validate(paths) })
		return nil
	}
	return r.validate(paths)
}

func (r *Registry) validate(paths []path.Path) error {
	before := r.snapshot()
	var ran []path.Path
	if len(paths) == 0 {
		for _, f := range r.sortedFields() {
			r.validateField(f)
			ran = append(ran, f.path)
		}
	} else {
		ran = r.validateRelated(paths)
	}
	if len(ran) == 0 {
		return nil
	}
	r.publish(KindValidate, ran, false, before)
	return nil
}

// validateRelated validates registered fields at, above or below any of
// paths and returns their paths.
func (r *Registry) validateRelated(paths []path.Path) []path.Path {
	var ran []path.Path
	for _, f := range r.sortedFields() {
		for _, p := range paths {
			if f.path.Related(p) {
				r.validateField(f)
				ran = append(ran, f.path)
				break
			}
		}
	}
	return ran
}

// validateField starts a run for f. A settled outcome is applied at once.
// A pending one supersedes any earlier run for the same path and is
// finished on a helper goroutine.
func (r *Registry) validateField(f *field) {
	key := f.path.String()
	delete(r.pending, key)

	out := r.runner.Field(f.path, f.rules, r.valueAt(f.path), r.values)
	if out.Settled() {
		r.setOutcome(key, out.Err)
		return
	}

	r.runID++
	run := r.runID
	r.pending[key] = run
	r.outstanding++
	r.logger.Debug("async validation started", "path", key, "run", run)

	go func(pd *validation.Pending) {
		verr, err := pd.Wait(r.ctx)
		r.queue.Enqueue(event{kind: eventValidation, path: key, run: run, verr: verr, err: err})
	}(out.Pending)
}

func (r *Registry) setOutcome(key string, verr *validation.Error) {
	if verr == nil {
		delete(r.errors, key)
		return
	}
	r.errors[key] = *verr
}

// settleValidation applies an async validation result unless a newer run
// for the same path superseded it.
func (r *Registry) settleValidation(e event) {
	if cur, ok := r.pending[e.path]; !ok || cur != e.run {
		r.logger.Debug("stale validation discarded", "path", e.path, "run", e.run)
		return
	}

	before := r.snapshot()
	delete(r.pending, e.path)
	if e.err != nil {
		r.logger.Warn("async validation abandoned", "path", e.path, "error", e.err)
	} else {
		r.setOutcome(e.path, e.verr)
	}

	p, err := path.Parse(e.path)
	if err != nil {
		p = path.Root
	}
	r.publish(KindValidate, []path.Path{p}, false, before)
}

// ValidateAll validates every registered field, waiting for asynchronous
// predicates inline, replaces the error mapping with the result and
// commits it. In-flight runs are superseded. The returned mapping is a
// copy.
func (r *Registry) ValidateAll(ctx context.Context) (validation.Errors, error) {
	fields := r.sortedFields()
	specs := make([]validation.Field, len(fields))
	paths := make([]path.Path, len(fields))
	for i, f := range fields {
		specs[i] = validation.Field{Path: f.path, Rules: f.rules}
		paths[i] = f.path
	}

	errs, err := r.runner.All(ctx, specs, r.values)
	if err != nil {
		return nil, fmt.Errorf("validate all: %w", err)
	}

	before := r.snapshot()
	r.pending = make(map[string]int64)
	r.errors = errs
	r.publish(KindValidate, paths, false, before)
	return errs.Clone(), nil
}

// Poll applies every async result that has arrived and returns how many
// were applied, stale ones included.
func (r *Registry) Poll() int {
	n := 0
	for {
		e, ok := r.queue.TryDequeue()
		if !ok {
			return n
		}
		r.apply(e)
		n++
	}
}

// Pending reports whether async work is still outstanding.
func (r *Registry) Pending() bool {
	return r.outstanding > 0
}

// Await applies async results until none is outstanding, ctx ends or the
// registry is closed.
func (r *Registry) Await(ctx context.Context) error {
	for {
		r.Poll()
		if r.outstanding == 0 {
			return nil
		}
		if r.ctx.Err() != nil {
			return ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-r.queue.Wait():
			if !ok {
				r.Poll()
				if r.outstanding == 0 {
					return nil
				}
				return ErrClosed
			}
		}
	}
}

func (r *Registry) apply(e event) {
	r.outstanding--
	switch e.kind {
	case eventDefaults:
		r.settleDefaults(e)
	case eventValidation:
		r.settleValidation(e)
	default:
		r.logger.Error("unknown async event", "error", errors.New("unknown event kind"), "kind", int(e.kind))
	}
}
