package path

import (
	"fmt"

	"github.com/roach88/formstate/pkg/value"
)

// Get returns the value at p in root. The second result is false when any
// segment along the way is missing.
func Get(root value.Value, p Path) (value.Value, bool) {
	cur := root
	for _, seg := range p.segs {
		switch node := cur.(type) {
		case value.Object:
			if seg.IsIndex {
				return nil, false
			}
			next, ok := node[seg.Key]
			if !ok {
				return nil, false
			}
			cur = next
		case value.Array:
			if !seg.IsIndex || seg.Index >= len(node) {
				return nil, false
			}
			cur = node[seg.Index]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// MaxIndexGap is how many Null slots one write may pad onto an array. An
// index further than this past the current end is an *InvalidPathError.
const MaxIndexGap = 1024

// Set returns a copy of root with v stored at p. Missing containers along
// the path are created: an Array before an index segment, an Object before
// a key segment. Arrays grow to fit the index, padded with Null, by at most
// MaxIndexGap slots.
//
// Writing through a scalar, or using the wrong segment kind for an
// existing container, is an *InvalidPathError.
func Set(root value.Object, p Path, v value.Value) (value.Object, error) {
	if p.IsRoot() {
		obj, ok := v.(value.Object)
		if !ok {
			return nil, newInvalidPath("", fmt.Sprintf("root must be an object, got %s", value.KindOf(v)))
		}
		return obj, nil
	}

	out, err := setIn(root, p, 0, v)
	if err != nil {
		return nil, err
	}
	return out.(value.Object), nil
}

func setIn(node value.Value, p Path, depth int, v value.Value) (value.Value, error) {
	if depth == len(p.segs) {
		return v, nil
	}
	seg := p.segs[depth]

	if seg.IsIndex {
		var arr value.Array
		switch n := node.(type) {
		case value.Array:
			arr = n
		case nil, value.Null:
		default:
			return nil, newInvalidPath(p.raw, fmt.Sprintf("index segment %d under %s", seg.Index, value.KindOf(node)))
		}

		if seg.Index-len(arr) > MaxIndexGap {
			return nil, newInvalidPath(p.raw, fmt.Sprintf("index %d is more than %d past the end of an array of length %d", seg.Index, MaxIndexGap, len(arr)))
		}
		size := max(len(arr), seg.Index+1)
		cp := make(value.Array, size)
		copy(cp, arr)
		for i := len(arr); i < size; i++ {
			cp[i] = value.Null{}
		}

		child, err := setIn(cp[seg.Index], p, depth+1, v)
		if err != nil {
			return nil, err
		}
		cp[seg.Index] = child
		return cp, nil
	}

	var obj value.Object
	switch n := node.(type) {
	case value.Object:
		obj = n
	case nil, value.Null:
	default:
		return nil, newInvalidPath(p.raw, fmt.Sprintf("key %q under %s", seg.Key, value.KindOf(node)))
	}

	cp := make(value.Object, len(obj)+1)
	for k, elem := range obj {
		cp[k] = elem
	}

	child, err := setIn(cp[seg.Key], p, depth+1, v)
	if err != nil {
		return nil, err
	}
	cp[seg.Key] = child
	return cp, nil
}

// Unset returns a copy of root without the value at p, and whether
// anything was removed. Only the leaf is removed: a parent left empty stays
// in place. An array element is replaced by Null so that sibling indices do
// not shift.
func Unset(root value.Object, p Path) (value.Object, bool) {
	if p.IsRoot() {
		return root, false
	}
	if _, ok := Get(root, p); !ok {
		return root, false
	}

	out := unsetIn(root, p, 0)
	return out.(value.Object), true
}

func unsetIn(node value.Value, p Path, depth int) value.Value {
	seg := p.segs[depth]
	last := depth == len(p.segs)-1

	switch n := node.(type) {
	case value.Object:
		cp := make(value.Object, len(n))
		for k, elem := range n {
			cp[k] = elem
		}
		if last {
			delete(cp, seg.Key)
		} else {
			cp[seg.Key] = unsetIn(n[seg.Key], p, depth+1)
		}
		return cp
	case value.Array:
		cp := make(value.Array, len(n))
		copy(cp, n)
		if last {
			cp[seg.Index] = value.Null{}
		} else {
			cp[seg.Index] = unsetIn(n[seg.Index], p, depth+1)
		}
		return cp
	}
	return node
}

// ArrayAt returns the array stored at p. A missing or null value yields an
// empty array; any other kind is an *InvalidPathError.
func ArrayAt(root value.Object, p Path) (value.Array, error) {
	v, ok := Get(root, p)
	if !ok {
		return value.Array{}, nil
	}
	switch arr := v.(type) {
	case value.Array:
		return arr, nil
	case value.Null:
		return value.Array{}, nil
	}
	return nil, newInvalidPath(p.raw, fmt.Sprintf("expected array, found %s", value.KindOf(v)))
}

// Leaves lists the paths of every scalar (or empty container) below v,
// relative to base. Objects are walked in sorted key order.
func Leaves(base Path, v value.Value) []Path {
	var out []Path
	var walk func(p Path, node value.Value)
	walk = func(p Path, node value.Value) {
		switch n := node.(type) {
		case value.Object:
			if len(n) == 0 {
				out = append(out, p)
				return
			}
			for _, k := range n.SortedKeys() {
				walk(p.Key(k), n[k])
			}
		case value.Array:
			if len(n) == 0 {
				out = append(out, p)
				return
			}
			for i, elem := range n {
				walk(p.Index(i), elem)
			}
		default:
			out = append(out, p)
		}
	}
	walk(base, v)
	return out
}
