package fieldarray

import (
	"log/slog"
	"slices"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/registry"
	"github.com/roach88/formstate/pkg/value"
)

// Store is the registry surface a controller needs.
type Store interface {
	BindArray(p path.Path) error
	MutateArray(p path.Path, edit registry.ArrayEdit) error
	Value(p path.Path) (value.Value, error)
}

// Item is one element of a field array.
type Item struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// Controller manages the array at one path. Like the registry it must be
// driven from the owner goroutine.
type Controller struct {
	store   Store
	path    path.Path
	gen     IDGenerator
	logger  *slog.Logger
	onStale func(error)
	ids     []string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger stale references are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithStaleHandler sets a callback for stale references. It also sees
// edits that were queued while defaults loaded and went stale on replay.
func WithStaleHandler(fn func(error)) Option {
	return func(c *Controller) {
		c.onStale = fn
	}
}

// New binds a controller to the array at p. Items already present get
// fresh IDs. A nil gen uses UUIDv7Generator.
func New(store Store, p path.Path, gen IDGenerator, opts ...Option) (*Controller, error) {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	c := &Controller{
		store:  store,
		path:   p,
		gen:    gen,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := store.BindArray(p); err != nil {
		return nil, err
	}
	if _, err := c.current(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the array path.
func (c *Controller) Path() path.Path {
	return c.path
}

// Fields returns the items in array order.
func (c *Controller) Fields() []Item {
	n, err := c.current()
	if err != nil {
		c.logger.Warn("field array unreadable", "path", c.path.String(), "error", err)
		return nil
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: c.ids[i], Index: i}
	}
	return items
}

// Len returns the current number of items.
func (c *Controller) Len() int {
	n, _ := c.current()
	return n
}

// IndexOf returns the index of the item with the given ID.
func (c *Controller) IndexOf(id string) (int, bool) {
	if _, err := c.current(); err != nil {
		return 0, false
	}
	i := slices.Index(c.ids, id)
	return i, i >= 0
}

// current reads the stored array and reconciles IDs with its length.
func (c *Controller) current() (int, error) {
	v, err := c.store.Value(c.path)
	if err != nil {
		return 0, err
	}
	arr, _ := v.(value.Array)
	c.reconcile(len(arr))
	return len(arr), nil
}

// reconcile keeps one ID per element when the array changed length
// outside the controller, e.g. when deferred defaults arrive.
func (c *Controller) reconcile(n int) {
	for len(c.ids) < n {
		c.ids = append(c.ids, c.gen.Generate())
	}
	if len(c.ids) > n {
		c.ids = c.ids[:n]
	}
}

// Append adds item at the end and returns its ID.
func (c *Controller) Append(item value.Value) (string, error) {
	id := c.gen.Generate()
	err := c.commit("append", func(n int) ([]int, error) {
		return append(identity(n), -1), nil
	}, []value.Value{item}, []string{id})
	return id, err
}

// Prepend adds item at the front and returns its ID.
func (c *Controller) Prepend(item value.Value) (string, error) {
	id := c.gen.Generate()
	err := c.commit("prepend", func(n int) ([]int, error) {
		return append([]int{-1}, identity(n)...), nil
	}, []value.Value{item}, []string{id})
	return id, err
}

// Insert places item at index, shifting later items, and returns its ID.
// index may equal the length.
func (c *Controller) Insert(index int, item value.Value) (string, error) {
	id := c.gen.Generate()
	err := c.commit("insert", func(n int) ([]int, error) {
		if index < 0 || index > n {
			return nil, c.stale("insert", index, n+1)
		}
		order := identity(n)
		return slices.Insert(order, index, -1), nil
	}, []value.Value{item}, []string{id})
	return id, err
}

// Remove deletes the item at index. Removing the only item leaves an
// empty array.
func (c *Controller) Remove(index int) error {
	return c.commit("remove", func(n int) ([]int, error) {
		if index < 0 || index >= n {
			return nil, c.stale("remove", index, n)
		}
		return slices.Delete(identity(n), index, index+1), nil
	}, nil, nil)
}

// RemoveID deletes the item with the given ID.
func (c *Controller) RemoveID(id string) error {
	return c.commit("remove", func(n int) ([]int, error) {
		index := slices.Index(c.ids, id)
		if index < 0 {
			return nil, &StaleReferenceError{Code: ErrCodeStaleReference, Array: c.path.String(), Op: "remove", ID: id, Index: -1, Length: n}
		}
		return slices.Delete(identity(n), index, index+1), nil
	}, nil, nil)
}

// Move takes the item at from and reinserts it at to.
func (c *Controller) Move(from, to int) error {
	return c.commit("move", func(n int) ([]int, error) {
		if from < 0 || from >= n {
			return nil, c.stale("move", from, n)
		}
		if to < 0 || to >= n {
			return nil, c.stale("move", to, n)
		}
		order := slices.Delete(identity(n), from, from+1)
		return slices.Insert(order, to, from), nil
	}, nil, nil)
}

// Swap exchanges the items at a and b.
func (c *Controller) Swap(a, b int) error {
	return c.commit("swap", func(n int) ([]int, error) {
		if a < 0 || a >= n {
			return nil, c.stale("swap", a, n)
		}
		if b < 0 || b >= n {
			return nil, c.stale("swap", b, n)
		}
		order := identity(n)
		order[a], order[b] = order[b], order[a]
		return order, nil
	}, nil, nil)
}

// Replace discards every item and installs items with new IDs.
func (c *Controller) Replace(items []value.Value) ([]string, error) {
	ids := make([]string, len(items))
	for i := range ids {
		ids[i] = c.gen.Generate()
	}
	err := c.commit("replace", func(int) ([]int, error) {
		order := make([]int, len(items))
		for i := range order {
			order[i] = -1
		}
		return order, nil
	}, items, ids)
	return ids, err
}

// commit hands the registry an edit built from plan. plan maps the current
// length to the new order: order[i] is the old index of element i, or -1
// for the next fresh item. The edit runs when the registry applies it, so
// plans validate against the length at that moment.
func (c *Controller) commit(op string, plan func(n int) ([]int, error), fresh []value.Value, freshIDs []string) error {
	err := c.store.MutateArray(c.path, func(cur value.Array) (registry.ArrayChange, error) {
		c.reconcile(len(cur))

		order, err := plan(len(cur))
		if err != nil {
			if IsStaleReference(err) {
				c.reportStale(op, err)
			}
			return registry.ArrayChange{}, err
		}

		vals := make(value.Array, len(order))
		ids := make([]string, len(order))
		k := 0
		for i, from := range order {
			if from < 0 {
				vals[i] = value.Clone(fresh[k])
				if vals[i] == nil {
					vals[i] = value.Null{}
				}
				ids[i] = freshIDs[k]
				k++
				continue
			}
			vals[i] = cur[from]
			ids[i] = c.ids[from]
		}
		c.ids = ids

		return registry.ArrayChange{Values: vals, Origin: order}, nil
	})
	return err
}

func (c *Controller) reportStale(op string, err error) {
	c.logger.Warn("stale field array reference", "path", c.path.String(), "op", op, "error", err)
	if c.onStale != nil {
		c.onStale(err)
	}
}

func (c *Controller) stale(op string, index, length int) *StaleReferenceError {
	return &StaleReferenceError{
		Code:   ErrCodeStaleReference,
		Array:  c.path.String(),
		Op:     op,
		Index:  index,
		Length: length,
	}
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
