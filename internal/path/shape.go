package path

import (
	"fmt"
	"sort"

	"github.com/roach88/formstate/pkg/value"
)

// Shape is the declared structure of a form's value type. A nil *Shape
// accepts every syntactically valid path.
type Shape struct {
	kind   value.Kind // KindObject, KindArray, a scalar kind, or KindNull for "any"
	fields map[string]*Shape
	elem   *Shape
}

// ObjectOf declares a mapping with fixed keys.
func ObjectOf(fields map[string]*Shape) *Shape {
	return &Shape{kind: value.KindObject, fields: fields}
}

// ArrayOf declares a sequence whose elements share one shape.
func ArrayOf(elem *Shape) *Shape {
	return &Shape{kind: value.KindArray, elem: elem}
}

// ScalarOf declares a leaf of the given kind.
func ScalarOf(kind value.Kind) *Shape {
	return &Shape{kind: kind}
}

// Any declares a leaf or subtree with no further structure.
func Any() *Shape {
	return &Shape{kind: value.KindNull}
}

// Kind returns the declared kind. KindNull means "any".
func (s *Shape) Kind() value.Kind {
	if s == nil {
		return value.KindNull
	}
	return s.kind
}

// Field returns the shape declared for key k of an object shape.
func (s *Shape) Field(k string) (*Shape, bool) {
	if s == nil || s.kind != value.KindObject {
		return nil, false
	}
	f, ok := s.fields[k]
	return f, ok
}

// FieldNames lists the declared keys of an object shape in sorted order.
func (s *Shape) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for k := range s.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Elem returns the element shape of an array shape.
func (s *Shape) Elem() *Shape {
	if s == nil {
		return nil
	}
	return s.elem
}

// Resolve walks p through the shape and returns the shape at its end.
// Undeclared keys, index segments under non-sequences and key segments
// under sequences are reported as *InvalidPathError. Below an "any" shape
// every path resolves.
func (s *Shape) Resolve(p Path) (*Shape, error) {
	if s == nil {
		return nil, nil
	}

	cur := s
	for i, seg := range p.segs {
		switch cur.kind {
		case value.KindNull:
			return cur, nil
		case value.KindObject:
			if seg.IsIndex {
				return nil, newInvalidPath(p.raw, fmt.Sprintf("index segment %d under object at %q", seg.Index, render(p.segs[:i])))
			}
			next, ok := cur.fields[seg.Key]
			if !ok {
				return nil, newInvalidPath(p.raw, fmt.Sprintf("undeclared field %q", seg.Key))
			}
			cur = next
		case value.KindArray:
			if !seg.IsIndex {
				return nil, newInvalidPath(p.raw, fmt.Sprintf("key %q under sequence at %q", seg.Key, render(p.segs[:i])))
			}
			cur = cur.elem
		default:
			return nil, newInvalidPath(p.raw, fmt.Sprintf("segment %q below %s leaf", seg.String(), cur.kind))
		}
		if cur == nil {
			return Any(), nil
		}
	}
	return cur, nil
}

// Zero builds the zero-value tree for the shape: empty strings, 0, false,
// empty arrays and objects holding the zero of each declared field.
func (s *Shape) Zero() value.Value {
	if s == nil {
		return value.Null{}
	}
	switch s.kind {
	case value.KindObject:
		obj := make(value.Object, len(s.fields))
		for k, f := range s.fields {
			obj[k] = f.Zero()
		}
		return obj
	case value.KindArray:
		return value.Array{}
	case value.KindString:
		return value.String("")
	case value.KindInt:
		return value.Int(0)
	case value.KindBool:
		return value.Bool(false)
	}
	return value.Null{}
}

// ZeroTree is Zero for the root shape, always returning an Object.
func (s *Shape) ZeroTree() value.Object {
	if obj, ok := s.Zero().(value.Object); ok {
		return obj
	}
	return value.Object{}
}
