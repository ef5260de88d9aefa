package registry

import (
	"fmt"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// ArrayChange is the result of a structural edit. Origin[i] is the
// previous index of element i of Values, or -1 for an inserted element.
type ArrayChange struct {
	Values value.Array
	Origin []int
}

// ArrayEdit computes a structural change from the array currently stored.
// It runs when the change is applied, which during Loading is after the
// defaults settle.
type ArrayEdit func(current value.Array) (ArrayChange, error)

// BindArray marks p as a field array. Its path and the leaves of its
// current items take part in dirty tracking.
func (r *Registry) BindArray(p path.Path) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	r.arrays[p.String()] = p
	return nil
}

// MutateArray applies edit to the array at p in one commit. Descriptors,
// touched flags and errors of surviving items follow their element to its
// new index; those of removed elements are dropped. Every leaf of an
// inserted element gets a descriptor without rules. In-flight async
// validations under p are invalidated.
//
// Errors returned by edit leave state untouched and are returned as is.
func (r *Registry) MutateArray(p path.Path, edit ArrayEdit) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	r.arrays[p.String()] = p
	if r.status == StatusLoading {
		r.later("mutate_array", func() error { return r.mutateArray(p, edit) })
		return nil
	}
	return r.mutateArray(p, edit)
}

func (r *Registry) mutateArray(p path.Path, edit ArrayEdit) error {
	cur, err := path.ArrayAt(r.values, p)
	if err != nil {
		return err
	}

	ch, err := edit(cur)
	if err != nil {
		return err
	}
	if len(ch.Origin) != len(ch.Values) {
		return fmt.Errorf("array edit at %s: %d origins for %d values", p, len(ch.Origin), len(ch.Values))
	}
	if ch.Values == nil {
		ch.Values = value.Array{}
	}

	next, err := path.Set(r.values, p, ch.Values)
	if err != nil {
		return err
	}

	before := r.snapshot()
	r.values = next

	moved := make(map[int]int, len(ch.Origin))
	for to, from := range ch.Origin {
		if from >= 0 {
			moved[from] = to
		}
	}
	remap := func(q path.Path) (path.Path, bool) {
		return remapIndex(q, p, moved)
	}

	fields := make(map[string]*field, len(r.fields))
	for _, f := range r.fields {
		if np, ok := remap(f.path); ok {
			fields[np.String()] = &field{path: np, rules: f.rules}
		}
	}
	r.fields = fields

	r.tracked = remapPaths(r.tracked, remap)
	r.arrays = remapPaths(r.arrays, remap)

	touched := make(map[string]bool, len(r.touched))
	for key := range r.touched {
		if np, ok := remapKey(key, remap); ok {
			touched[np] = true
		}
	}
	r.touched = touched

	errs := make(validation.Errors, len(r.errors))
	for key, verr := range r.errors {
		if np, ok := remapKey(key, remap); ok {
			verr.Path = np
			errs[np] = verr
		}
	}
	r.errors = errs

	for key := range r.pending {
		if q, err := path.Parse(key); err == nil && q.HasPrefix(p) {
			delete(r.pending, key)
		}
	}

	for to, from := range ch.Origin {
		if from >= 0 {
			continue
		}
		for _, leaf := range path.Leaves(p.Index(to), ch.Values[to]) {
			if _, ok := r.fields[leaf.String()]; !ok {
				r.fields[leaf.String()] = &field{path: leaf}
			}
		}
	}

	r.publish(KindArray, []path.Path{p}, true, before)
	return nil
}

// remapIndex moves q when it lies inside an element of the array at p.
// It reports false when that element was removed.
func remapIndex(q, p path.Path, moved map[int]int) (path.Path, bool) {
	if q.Len() <= p.Len() || !q.HasPrefix(p) {
		return q, true
	}
	seg := q.At(p.Len())
	if !seg.IsIndex {
		return q, true
	}
	to, ok := moved[seg.Index]
	if !ok {
		return path.Path{}, false
	}
	if to == seg.Index {
		return q, true
	}
	rest, _ := q.TrimPrefix(p.Index(seg.Index))
	return p.Index(to).Join(rest), true
}

func remapKey(key string, remap func(path.Path) (path.Path, bool)) (string, bool) {
	q, err := path.Parse(key)
	if err != nil {
		return key, true
	}
	np, ok := remap(q)
	if !ok {
		return "", false
	}
	return np.String(), true
}

func remapPaths(in map[string]path.Path, remap func(path.Path) (path.Path, bool)) map[string]path.Path {
	out := make(map[string]path.Path, len(in))
	for _, q := range in {
		if np, ok := remap(q); ok {
			out[np.String()] = np
		}
	}
	return out
}
