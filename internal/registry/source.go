package registry

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/formstate/pkg/value"
)

// Source produces the defaults a form starts from: a literal tree, or a
// producer run once either inline (Func) or on its own goroutine
// (Deferred).
type Source interface {
	claim() error
}

type literalSource struct {
	values value.Object
}

func (literalSource) claim() error { return nil }

// Literal uses obj as the defaults. obj is copied.
func Literal(obj value.Object) Source {
	return literalSource{values: obj.Clone()}
}

// Producer returns a defaults tree or an error.
type Producer func(ctx context.Context) (value.Object, error)

type producerSource struct {
	fn    Producer
	async bool
	used  atomic.Bool
}

func (s *producerSource) claim() error {
	if s.fn == nil {
		return errors.New("defaults producer is nil")
	}
	if !s.used.CompareAndSwap(false, true) {
		return ErrSourceConsumed
	}
	return nil
}

// Func runs fn synchronously inside Initialize or Reset.
func Func(fn Producer) Source {
	return &producerSource{fn: fn}
}

// Deferred runs fn on a helper goroutine. The registry stays Loading until
// the result is applied by Poll or Await.
func Deferred(fn Producer) Source {
	return &producerSource{fn: fn, async: true}
}

// overlay deep-merges top onto base. Objects merge key by key; any other
// value in top replaces the one in base.
func overlay(base, top value.Object) value.Object {
	out := make(value.Object, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		if bo, ok := out[k].(value.Object); ok {
			if to, ok := v.(value.Object); ok {
				out[k] = overlay(bo, to)
				continue
			}
		}
		out[k] = v
	}
	return out
}
