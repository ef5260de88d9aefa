package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/pkg/value"
)

// Runner evaluates rule sets. It holds no form state and is safe for
// concurrent use.
type Runner struct {
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for rule tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is the result of validating one field. When Pending is set the
// field has not settled yet and Err is meaningless.
type Outcome struct {
	Err     *Error
	Pending *Pending
}

// Settled reports whether the outcome is final.
func (o Outcome) Settled() bool {
	return o.Pending == nil
}

// Field validates v, the current value at p, against rules. values is the
// whole tree, handed to custom predicates for cross-field checks.
func (r *Runner) Field(p path.Path, rules Rules, v value.Value, values value.Object) Outcome {
	if v == nil {
		v = value.Null{}
	}

	if req := rules.Required; req != nil && req.Value && failsRequired(v) {
		return r.fail(p, RuleRequired, req.Message, DefaultRequiredMessage)
	}

	if pat := rules.Pattern; pat != nil && pat.Value != nil {
		if s, ok := v.(value.String); ok && s != "" && !pat.Value.MatchString(string(s)) {
			return r.fail(p, RulePattern, pat.Message, DefaultPatternMessage)
		}
	}

	for i, c := range rules.Validate {
		if c.IsAsync() {
			return Outcome{Pending: &Pending{
				path:    p,
				customs: rules.Validate[i:],
				v:       v,
				values:  values,
				logger:  r.logger,
			}}
		}
		if c.Check == nil {
			continue
		}
		if msg, ok := c.Check(v, values); !ok {
			return r.fail(p, c.name(), msg, DefaultCustomMessage)
		}
	}

	return Outcome{}
}

// Field is one entry of an All run.
type Field struct {
	Path  path.Path
	Rules Rules
}

// All validates every field against values, waiting for asynchronous
// predicates inline. It returns the aggregate error mapping, or the
// context's error if ctx ends while a predicate is pending.
func (r *Runner) All(ctx context.Context, fields []Field, values value.Object) (Errors, error) {
	errs := Errors{}
	for _, f := range fields {
		v, ok := path.Get(values, f.Path)
		if !ok {
			v = value.Null{}
		}

		out := r.Field(f.Path, f.Rules, v, values)
		verr := out.Err
		if out.Pending != nil {
			var err error
			verr, err = out.Pending.Wait(ctx)
			if err != nil {
				return nil, fmt.Errorf("validate %s: %w", f.Path, err)
			}
		}
		if verr != nil {
			errs[verr.Path] = *verr
		}
	}
	return errs, nil
}

func (r *Runner) fail(p path.Path, rule, msg, fallback string) Outcome {
	return Outcome{Err: newError(r.logger, p, rule, msg, fallback)}
}

func newError(logger *slog.Logger, p path.Path, rule, msg, fallback string) *Error {
	if msg == "" {
		msg = fallback
	}
	logger.Debug("rule failed", "path", p.String(), "rule", rule)
	return &Error{Path: p.String(), Rule: rule, Message: msg}
}

func failsRequired(v value.Value) bool {
	if _, ok := v.(value.Int); ok {
		return false
	}
	return value.IsEmpty(v)
}
