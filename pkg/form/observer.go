package form

import (
	"context"
	"log/slog"

	"github.com/roach88/formstate/pkg/value"
)

// Observer receives lifecycle callbacks for logging and metrics.
//
// Implementations should be fast; they run on the form's goroutine.
type Observer interface {
	// OnDefaultsFailed is called when a defaults source fails.
	OnDefaultsFailed(ctx context.Context, err error)

	// OnSubmit is called after a submit decided, with the values it saw
	// and the errors it found. err is the onValid callback's error.
	OnSubmit(ctx context.Context, values value.Object, errs Errors, err error)

	// OnStaleReference is called when a field array operation named a
	// removed item.
	OnStaleReference(ctx context.Context, array string, err error)
}

// NoopObserver does nothing. It is the default.
type NoopObserver struct{}

func (NoopObserver) OnDefaultsFailed(context.Context, error)               {}
func (NoopObserver) OnSubmit(context.Context, value.Object, Errors, error) {}
func (NoopObserver) OnStaleReference(context.Context, string, error)       {}

// CompositeObserver fans callbacks out to several observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver forwards to each non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnDefaultsFailed(ctx context.Context, err error) {
	for _, o := range c.observers {
		o.OnDefaultsFailed(ctx, err)
	}
}

func (c *CompositeObserver) OnSubmit(ctx context.Context, values value.Object, errs Errors, err error) {
	for _, o := range c.observers {
		o.OnSubmit(ctx, values, errs, err)
	}
}

func (c *CompositeObserver) OnStaleReference(ctx context.Context, array string, err error) {
	for _, o := range c.observers {
		o.OnStaleReference(ctx, array, err)
	}
}

// LoggingObserver writes structured logs with log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver logs to logger, or slog.Default() when nil.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnDefaultsFailed(ctx context.Context, err error) {
	o.Logger.ErrorContext(ctx, "defaults_failed", slog.Any("error", err))
}

func (o *LoggingObserver) OnSubmit(ctx context.Context, _ value.Object, errs Errors, err error) {
	level := slog.LevelInfo
	if err != nil || len(errs) > 0 {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "submit",
		slog.Bool("valid", len(errs) == 0),
		slog.Any("invalid_fields", errs.Paths()),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStaleReference(ctx context.Context, array string, err error) {
	o.Logger.WarnContext(ctx, "stale_reference", slog.String("array", array), slog.Any("error", err))
}
