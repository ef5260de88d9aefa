package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

func appendEdit(item value.Value) ArrayEdit {
	return func(cur value.Array) (ArrayChange, error) {
		origin := make([]int, 0, len(cur)+1)
		for i := range cur {
			origin = append(origin, i)
		}
		vals := append(append(value.Array{}, cur...), item)
		return ArrayChange{Values: vals, Origin: append(origin, -1)}, nil
	}
}

func removeEdit(index int) ArrayEdit {
	return func(cur value.Array) (ArrayChange, error) {
		var ch ArrayChange
		for i, v := range cur {
			if i == index {
				continue
			}
			ch.Values = append(ch.Values, v)
			ch.Origin = append(ch.Origin, i)
		}
		return ch, nil
	}
}

func TestMutateArrayAppend(t *testing.T) {
	r, rec := newReady(t)
	require.NoError(t, r.BindArray(mp("phNumbers")))

	require.NoError(t, r.MutateArray(mp("phNumbers"), appendEdit(value.Object{"number": value.String("555")})))

	require.Len(t, rec.changes, 1, "one notification per structural change")
	c := rec.changes[0]
	assert.Equal(t, KindArray, c.Kind)
	assert.Equal(t, []path.Path{mp("phNumbers")}, c.Paths)

	_, ok := r.Field(mp("phNumbers.1.number"))
	assert.True(t, ok, "inserted leaves get descriptors")

	assert.Equal(t, []string{"phNumbers", "phNumbers.1.number"}, r.State().DirtyFields)
}

func TestMutateArrayRemoveRemapsState(t *testing.T) {
	r, _ := newReady(t)
	require.NoError(t, r.BindArray(mp("phNumbers")))
	require.NoError(t, r.Register(mp("phNumbers.0.number"), validation.Rules{Required: validation.RequiredRule("")}))
	require.NoError(t, r.MutateArray(mp("phNumbers"), appendEdit(value.Object{"number": value.String("")})))
	require.NoError(t, r.MutateArray(mp("phNumbers"), appendEdit(value.Object{"number": value.String("")})))
	require.NoError(t, r.Register(mp("phNumbers.2.number"), validation.Rules{Required: validation.RequiredRule("Number needed")}))

	require.NoError(t, r.Touch(mp("phNumbers.2.number")))
	require.NoError(t, r.Validate(mp("phNumbers.2.number")))
	require.NoError(t, r.Touch(mp("phNumbers.0.number")))

	require.NoError(t, r.MutateArray(mp("phNumbers"), removeEdit(0)))

	st := r.State()
	assert.Equal(t, []string{"phNumbers.1.number"}, st.TouchedFields)
	require.Contains(t, st.Errors, "phNumbers.1.number")
	assert.Equal(t, "phNumbers.1.number", st.Errors["phNumbers.1.number"].Path)
	assert.Equal(t, "Number needed", st.Errors["phNumbers.1.number"].Message)

	d, ok := r.Field(mp("phNumbers.1.number"))
	require.True(t, ok)
	assert.Equal(t, "Number needed", d.Rules.Required.Message, "rules follow their item")
	_, ok = r.Field(mp("phNumbers.2.number"))
	assert.False(t, ok)

	arr, _ := r.Value(mp("phNumbers"))
	assert.Len(t, arr, 2)
}

func TestMutateArrayRemoveLast(t *testing.T) {
	r, _ := newReady(t)
	require.NoError(t, r.MutateArray(mp("phNumbers"), removeEdit(0)))

	arr, err := r.Value(mp("phNumbers"))
	require.NoError(t, err)
	assert.Equal(t, value.Array{}, arr)
}

func TestMutateArrayEditErrorLeavesState(t *testing.T) {
	r, rec := newReady(t)
	before := r.State()
	boom := errors.New("stale")

	err := r.MutateArray(mp("phNumbers"), func(value.Array) (ArrayChange, error) {
		return ArrayChange{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, r.State())
	assert.Empty(t, rec.changes)

	err = r.MutateArray(mp("phNumbers"), func(cur value.Array) (ArrayChange, error) {
		return ArrayChange{Values: cur, Origin: nil}, nil
	})
	assert.Error(t, err)
}

func TestMutateArrayInvalidatesAsync(t *testing.T) {
	r, _ := newReady(t)
	g := newGate()
	require.NoError(t, r.Register(mp("phNumbers.0.number"), validation.Rules{Validate: []validation.Custom{g.rule()}}))
	require.NoError(t, r.Validate(mp("phNumbers.0.number")))
	require.True(t, r.State().IsValidating)

	require.NoError(t, r.MutateArray(mp("phNumbers"), appendEdit(value.Object{"number": value.String("")})))
	assert.False(t, r.State().IsValidating)

	g.answers <- false
	require.NoError(t, r.Await(awaitCtx(t)))
	assert.Empty(t, r.State().Errors, "result for the pre-move item is discarded")
}

func TestMutateArrayDuringLoading(t *testing.T) {
	r := New(WithShape(youtubeShape()))
	defer r.Close()

	release := make(chan struct{})
	require.NoError(t, r.Initialize(context.Background(), Deferred(func(context.Context) (value.Object, error) {
		<-release
		return youtubeDefaults(), nil
	})))

	seen := -1
	require.NoError(t, r.MutateArray(mp("phNumbers"), func(cur value.Array) (ArrayChange, error) {
		seen = len(cur)
		return appendEdit(value.Object{"number": value.String("1")})(cur)
	}))
	assert.Equal(t, -1, seen, "edit runs on replay")

	close(release)
	require.NoError(t, r.Await(awaitCtx(t)))
	assert.Equal(t, 1, seen)

	arr, _ := r.Value(mp("phNumbers"))
	assert.Len(t, arr, 2)
}

func TestRemapIndex(t *testing.T) {
	arr := mp("phNumbers")
	moved := map[int]int{0: 1, 1: 0}

	got, ok := remapIndex(mp("phNumbers.0.number"), arr, moved)
	require.True(t, ok)
	assert.Equal(t, "phNumbers.1.number", got.String())

	got, ok = remapIndex(mp("username"), arr, moved)
	require.True(t, ok)
	assert.Equal(t, "username", got.String())

	got, ok = remapIndex(arr, arr, moved)
	require.True(t, ok)
	assert.Equal(t, "phNumbers", got.String())

	_, ok = remapIndex(mp("phNumbers.2"), arr, moved)
	assert.False(t, ok)
}
