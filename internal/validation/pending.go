package validation

import (
	"context"
	"log/slog"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/pkg/value"
)

// Pending is a validation run suspended at an asynchronous predicate.
// It captures the value and tree it was started with; Wait may be called
// from any goroutine.
type Pending struct {
	path    path.Path
	customs []Custom
	v       value.Value
	values  value.Object
	logger  *slog.Logger
}

// Path returns the field being validated.
func (p *Pending) Path() path.Path {
	return p.path
}

// Wait evaluates the remaining custom rules, blocking on asynchronous ones.
// It returns the first failure, nil when every rule accepts, or ctx's error
// when the wait is abandoned.
func (p *Pending) Wait(ctx context.Context) (*Error, error) {
	for _, c := range p.customs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			msg string
			ok  bool
		)
		switch {
		case c.Check != nil:
			msg, ok = c.Check(p.v, p.values)
		case c.Async != nil:
			var err error
			msg, ok, err = c.Async(ctx, p.v, p.values)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				p.logger.Warn("async rule errored", "path", p.path.String(), "rule", c.name(), "error", err)
				msg, ok = err.Error(), false
			}
		default:
			continue
		}

		if !ok {
			return newError(p.logger, p.path, c.name(), msg, DefaultCustomMessage), nil
		}
	}
	return nil, nil
}
