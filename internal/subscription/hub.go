package subscription

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/registry"
)

// Notification is what a subscriber receives for one commit.
type Notification struct {
	Seq           int64
	Kind          registry.Kind
	Paths         []path.Path
	ValuesChanged bool
	State         registry.FormState
}

// Callback receives notifications.
type Callback func(Notification)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id        int64
	selector  Selector
	cb        Callback
	hub       *Hub
	active    atomic.Bool
	delivered atomic.Int64
}

// Unsubscribe makes the handle inert at once: no further notification is
// delivered, including one for a commit currently being fanned out.
func (s *Subscription) Unsubscribe() {
	if s.active.CompareAndSwap(true, false) {
		s.hub.remove(s)
	}
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Delivered returns how many notifications reached the callback. A
// rendering consumer can use it as its own render counter.
func (s *Subscription) Delivered() int64 {
	return s.delivered.Load()
}

// Selector returns the selector the subscription was created with.
func (s *Subscription) Selector() Selector {
	return s.selector
}

// Hub delivers registry changes to subscriptions. It implements
// registry.Publisher.
type Hub struct {
	mu     sync.Mutex
	subs   []*Subscription
	nextID int64
	logger *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used for delivery tracing.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers cb for commits matching sel. A subscription made
// while a commit is being delivered starts with the next commit.
func (h *Hub) Subscribe(sel Selector, cb Callback) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{id: h.nextID, selector: sel, cb: cb, hub: h}
	s.active.Store(true)
	h.subs = append(h.subs, s)
	h.logger.Debug("subscribed", "id", s.id, "selector", sel.String())
	return s
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = slices.DeleteFunc(h.subs, func(x *Subscription) bool { return x == s })
	h.logger.Debug("unsubscribed", "id", s.id)
}

// Publish delivers c to every matching subscription.
func (h *Hub) Publish(c registry.Change) {
	h.mu.Lock()
	targets := slices.Clone(h.subs)
	h.mu.Unlock()

	n := Notification{
		Seq:           c.Seq,
		Kind:          c.Kind,
		Paths:         c.Paths,
		ValuesChanged: c.ValuesChanged,
		State:         c.After,
	}
	for _, s := range targets {
		if !s.selector.Matches(c) {
			continue
		}
		// Checked immediately before delivery so an unsubscribe issued by an
		// earlier callback of this same commit takes effect.
		if !s.active.Load() {
			continue
		}
		s.delivered.Add(1)
		s.cb(n)
	}
}
