package schema

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/formstate/pkg/value"
)

// toValue converts a concrete CUE value into a value tree.
func toValue(field string, v cue.Value) (value.Value, error) {
	switch v.IncompleteKind() {
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := value.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := toValue(fmt.Sprintf("%s.%d", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := value.Object{}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			elem, err := toValue(join(field, name), iter.Value())
			if err != nil {
				return nil, err
			}
			obj[name] = elem
		}
		return obj, nil
	}

	if !v.IsConcrete() {
		return nil, &CompileError{Field: field, Message: "value must be concrete", Pos: v.Pos()}
	}

	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Int(i), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.String(s), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{Field: field, Message: "float values are forbidden, use int instead", Pos: v.Pos()}
	}
	return nil, &CompileError{
		Field:   field,
		Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
		Pos:     v.Pos(),
	}
}

func stringAt(field string, v cue.Value) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: v.Pos()}
	}
	return s, nil
}

func intAt(field string, v cue.Value) (int64, error) {
	i, err := v.Int64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: "must be an int", Pos: v.Pos()}
	}
	return i, nil
}

func boolAt(field string, v cue.Value) (bool, error) {
	b, err := v.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: "must be a bool", Pos: v.Pos()}
	}
	return b, nil
}
