package fieldarray

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/registry"
	"github.com/roach88/formstate/pkg/value"
)

type counter struct {
	n int
}

func (c *counter) Publish(registry.Change) { c.n++ }

func numberItem(s string) value.Object {
	return value.Object{"number": value.String(s)}
}

func phShape() *path.Shape {
	return path.ObjectOf(map[string]*path.Shape{
		"phNumbers": path.ArrayOf(path.ObjectOf(map[string]*path.Shape{
			"number": path.ScalarOf(value.KindString),
		})),
		"username": path.ScalarOf(value.KindString),
	})
}

func setup(t *testing.T, items ...value.Value) (*Controller, *registry.Registry, *counter) {
	t.Helper()
	pub := &counter{}
	reg := registry.New(registry.WithShape(phShape()), registry.WithPublisher(pub))
	t.Cleanup(reg.Close)

	require.NoError(t, reg.Initialize(context.Background(), registry.Literal(value.Object{
		"phNumbers": value.Array(items),
	})))
	c, err := New(reg, path.MustParse("phNumbers"), NewSequenceGenerator("id"))
	require.NoError(t, err)
	pub.n = 0
	return c, reg, pub
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func arrayOf(t *testing.T, reg *registry.Registry) value.Value {
	t.Helper()
	v, err := reg.Value(path.MustParse("phNumbers"))
	require.NoError(t, err)
	return v
}

func TestExistingItemsGetIDs(t *testing.T) {
	c, _, _ := setup(t, numberItem(""))
	assert.Equal(t, []Item{{ID: "id-1", Index: 0}}, c.Fields())
}

func TestAppendThenRemoveKeepsIdentity(t *testing.T) {
	c, reg, pub := setup(t, numberItem(""))
	initial := c.Fields()[0].ID

	appended, err := c.Append(numberItem("555"))
	require.NoError(t, err)
	assert.NotEqual(t, initial, appended)
	assert.Equal(t, 1, pub.n, "one notification per append")

	require.NoError(t, c.Remove(0))

	assert.Equal(t, value.Array{numberItem("555")}, arrayOf(t, reg))
	assert.Equal(t, []Item{{ID: appended, Index: 0}}, c.Fields())
}

func TestAppendTwoRemoveFirst(t *testing.T) {
	c, _, _ := setup(t)

	i1, err := c.Append(numberItem("1"))
	require.NoError(t, err)
	i2, err := c.Append(numberItem("2"))
	require.NoError(t, err)

	require.NoError(t, c.Remove(0))
	assert.Equal(t, []Item{{ID: i2, Index: 0}}, c.Fields())
	_, ok := c.IndexOf(i1)
	assert.False(t, ok)
}

func TestRemoveSoleItem(t *testing.T) {
	c, reg, _ := setup(t, numberItem(""))

	require.NoError(t, c.Remove(0))
	assert.Empty(t, c.Fields())
	assert.Equal(t, value.Array{}, arrayOf(t, reg))

	id, err := c.Append(numberItem(""))
	require.NoError(t, err)
	assert.Equal(t, "id-2", id, "retired ids are not reused")
}

func TestStaleReferences(t *testing.T) {
	c, reg, pub := setup(t, numberItem("a"))
	before := reg.State()

	tests := []struct {
		name string
		op   func() error
	}{
		{"remove out of range", func() error { return c.Remove(1) }},
		{"remove negative", func() error { return c.Remove(-1) }},
		{"remove unknown id", func() error { return c.RemoveID("nope") }},
		{"move from", func() error { return c.Move(3, 0) }},
		{"move to", func() error { return c.Move(0, 3) }},
		{"swap", func() error { return c.Swap(0, 1) }},
		{"insert", func() error { _, err := c.Insert(5, numberItem("")); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.Error(t, err)
			assert.True(t, IsStaleReference(err))
		})
	}

	assert.Equal(t, before, reg.State())
	assert.Zero(t, pub.n)
	assert.Equal(t, []Item{{ID: "id-1", Index: 0}}, c.Fields())
}

func TestStaleErrorMessage(t *testing.T) {
	c, _, _ := setup(t)
	err := c.Remove(0)
	assert.EqualError(t, err, "STALE_REFERENCE: remove on phNumbers: index 0 out of range [0,0)")

	err = c.RemoveID("gone")
	assert.EqualError(t, err, `STALE_REFERENCE: remove on phNumbers: unknown item id "gone"`)
}

func TestMoveSwapInsertPrepend(t *testing.T) {
	c, reg, _ := setup(t, numberItem("a"), numberItem("b"), numberItem("c"))
	// id-1:a id-2:b id-3:c

	require.NoError(t, c.Move(0, 2))
	assert.Equal(t, []string{"id-2", "id-3", "id-1"}, ids(c.Fields()))
	assert.Equal(t, value.Array{numberItem("b"), numberItem("c"), numberItem("a")}, arrayOf(t, reg))

	require.NoError(t, c.Swap(0, 2))
	assert.Equal(t, []string{"id-1", "id-3", "id-2"}, ids(c.Fields()))

	id, err := c.Insert(1, numberItem("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1", id, "id-3", "id-2"}, ids(c.Fields()))

	first, err := c.Prepend(numberItem("p"))
	require.NoError(t, err)
	assert.Equal(t, first, c.Fields()[0].ID)

	for i, it := range c.Fields() {
		assert.Equal(t, i, it.Index, "indices stay dense")
	}

	require.NoError(t, c.RemoveID(id))
	assert.Equal(t, []string{first, "id-1", "id-3", "id-2"}, ids(c.Fields()))
}

func TestReplace(t *testing.T) {
	c, reg, _ := setup(t, numberItem("a"))

	got, err := c.Replace([]value.Value{numberItem("x"), numberItem("y")})
	require.NoError(t, err)
	assert.Equal(t, got, ids(c.Fields()))
	assert.NotContains(t, got, "id-1")
	assert.Equal(t, value.Array{numberItem("x"), numberItem("y")}, arrayOf(t, reg))
}

func TestItemFieldsFollowIdentity(t *testing.T) {
	c, reg, _ := setup(t, numberItem("a"), numberItem("b"))
	require.NoError(t, reg.Touch(path.MustParse("phNumbers.1.number")))

	require.NoError(t, c.Remove(0))
	assert.Equal(t, []string{"phNumbers.0.number"}, reg.State().TouchedFields)
}

func TestReconcilesWithDeferredDefaults(t *testing.T) {
	reg := registry.New(registry.WithShape(phShape()))
	defer reg.Close()

	release := make(chan struct{})
	require.NoError(t, reg.Initialize(context.Background(), registry.Deferred(func(context.Context) (value.Object, error) {
		<-release
		return value.Object{"phNumbers": value.Array{numberItem("")}}, nil
	})))

	c, err := New(reg, path.MustParse("phNumbers"), NewSequenceGenerator("id"))
	require.NoError(t, err)
	assert.Empty(t, c.Fields(), "zero tree while loading")

	appended, err := c.Append(numberItem("555"))
	require.NoError(t, err)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, reg.Await(ctx))

	items := c.Fields()
	require.Len(t, items, 2)
	assert.Equal(t, appended, items[1].ID)
	assert.Equal(t, value.Array{numberItem(""), numberItem("555")}, arrayOf(t, reg))
}

func TestStaleHandler(t *testing.T) {
	reg := registry.New(registry.WithShape(phShape()))
	defer reg.Close()

	release := make(chan struct{})
	require.NoError(t, reg.Initialize(context.Background(), registry.Deferred(func(context.Context) (value.Object, error) {
		<-release
		return value.Object{"phNumbers": value.Array{numberItem("")}}, nil
	})))

	var reported []error
	c, err := New(reg, path.MustParse("phNumbers"), NewSequenceGenerator("id"),
		WithStaleHandler(func(err error) { reported = append(reported, err) }),
	)
	require.NoError(t, err)

	// Queued while loading; only one item arrives.
	require.NoError(t, c.Remove(3))
	assert.Empty(t, reported)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, reg.Await(ctx))

	require.Len(t, reported, 1)
	assert.True(t, IsStaleReference(reported[0]))

	err = c.Swap(0, 2)
	require.Error(t, err)
	require.Len(t, reported, 2)
	assert.Equal(t, err, reported[1])
	assert.Len(t, c.Fields(), 1)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("x", "y")
	assert.Equal(t, "x", g.Generate())
	assert.Equal(t, "y", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
