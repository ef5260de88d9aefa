package registry

import (
	"context"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// Initialize installs src as the defaults source. Literal and Func sources
// settle before Initialize returns; a Deferred source leaves the registry
// Loading until its result is applied by Poll or Await.
//
// A failing producer is not returned as an error: the registry enters
// Failed with the zero tree as baseline and FormState.DefaultsErr set. The
// only errors are ErrSourceConsumed and a nil producer.
func (r *Registry) Initialize(ctx context.Context, src Source) error {
	return r.load(ctx, src, KindInit)
}

// Reset re-initialises from src, clearing touched flags, errors, in-flight
// validations and submit state. Registered fields survive. A nil src
// restores the current baseline. Results of a superseded deferred source
// are discarded when they arrive.
func (r *Registry) Reset(ctx context.Context, src Source) error {
	if src == nil {
		src = literalSource{values: r.baseline}
	}
	return r.load(ctx, src, KindReset)
}

func (r *Registry) load(ctx context.Context, src Source, kind Kind) error {
	if err := src.claim(); err != nil {
		return err
	}

	before := r.snapshot()
	r.generation++
	gen := r.generation

	if kind == KindReset {
		r.touched = make(map[string]bool)
		r.errors = validation.Errors{}
		r.pending = make(map[string]int64)
		r.tracked = make(map[string]path.Path)
		r.submitCount, r.submitted, r.submitOK = 0, false, false
	}

	switch s := src.(type) {
	case literalSource:
		r.resolve(s.values)
	case *producerSource:
		if s.async {
			r.status = StatusLoading
			if !r.resolved {
				zero := r.shape.ZeroTree()
				r.values, r.baseline = zero, zero
			}
			r.outstanding++
			r.logger.Debug("deferred defaults started", "generation", gen)
			go func() {
				vals, err := s.fn(ctx)
				r.queue.Enqueue(event{kind: eventDefaults, gen: gen, values: vals, err: err})
			}()
			r.publish(kind, []path.Path{path.Root}, true, before)
			return nil
		}

		vals, err := s.fn(ctx)
		if err != nil {
			r.fail(err)
			r.publish(KindDefaultsFailed, []path.Path{path.Root}, true, before)
			r.replay()
			return nil
		}
		r.resolve(vals)
	}

	r.publish(kind, []path.Path{path.Root}, true, before)
	r.replay()
	return nil
}

// settleDefaults applies a deferred defaults result.
func (r *Registry) settleDefaults(e event) {
	if e.gen != r.generation {
		r.logger.Debug("superseded defaults discarded", "generation", e.gen, "current", r.generation)
		return
	}

	before := r.snapshot()
	kind := KindInit
	if e.err != nil {
		r.fail(e.err)
		kind = KindDefaultsFailed
	} else {
		r.resolve(e.values)
	}
	r.publish(kind, []path.Path{path.Root}, true, before)
	r.replay()
}

func (r *Registry) resolve(vals value.Object) {
	tree := overlay(r.shape.ZeroTree(), vals)
	r.values = tree
	r.baseline = tree
	r.status = StatusReady
	r.defaultsErr = nil
	r.resolved = true
	r.logger.Debug("defaults resolved", "generation", r.generation)
}

func (r *Registry) fail(err error) {
	zero := r.shape.ZeroTree()
	r.values = zero
	r.baseline = zero
	r.status = StatusFailed
	r.defaultsErr = newDefaultsError(err)
	r.logger.Error("defaults source failed", "generation", r.generation, "error", err)
}
