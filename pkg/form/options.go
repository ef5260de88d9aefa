package form

import (
	"log/slog"

	"github.com/roach88/formstate/internal/fieldarray"
	"github.com/roach88/formstate/internal/registry"
)

type config struct {
	defaults registry.Source
	shape    *Shape
	mode     Mode
	reMode   Mode
	logger   *slog.Logger
	ids      IDGenerator
	observer Observer
	clock    registry.Clock
	watches  []watch
}

type watch struct {
	sel Selector
	cb  func(Notification)
}

// Option configures a Form.
type Option func(*config)

// WithDefaults sets the defaults source. Without it the form starts from
// the shape's zero tree.
func WithDefaults(src Source) Option {
	return func(c *config) {
		c.defaults = src
	}
}

// WithShape declares the value shape paths are checked against.
func WithShape(s *Shape) Option {
	return func(c *config) {
		c.shape = s
	}
}

// WithMode sets when fields validate before the first submit.
// Default: OnSubmit.
func WithMode(m Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// WithReValidateMode sets when fields validate after the first submit.
// Default: OnChange.
func WithReValidateMode(m Mode) Option {
	return func(c *config) {
		c.reMode = m
	}
}

// WithLogger sets the logger shared by every engine component.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithIDGenerator sets how field array items get their IDs.
// Default: UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *config) {
		c.ids = g
	}
}

// WithObserver adds an observer. Several observers are combined.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = NewCompositeObserver(c.observer, o)
	}
}

// WithClock sets the commit sequence source.
func WithClock(clk registry.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

// WithWatch subscribes cb before the defaults are installed, so it also
// sees the initial commit. Watch subscribes later.
func WithWatch(sel Selector, cb func(Notification)) Option {
	return func(c *config) {
		c.watches = append(c.watches, watch{sel: sel, cb: cb})
	}
}

func defaultConfig() config {
	return config{
		mode:     OnSubmit,
		reMode:   OnChange,
		logger:   slog.Default(),
		ids:      fieldarray.UUIDv7Generator{},
		observer: NoopObserver{},
	}
}
