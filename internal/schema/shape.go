package schema

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/pkg/value"
)

// compileShape converts CUE types into a Shape. A nullable type such as
// string | null declares its non-null kind. Top (_) declares "any".
func compileShape(field string, v cue.Value) (*path.Shape, error) {
	kind := v.IncompleteKind()
	if kind != cue.NullKind && kind != cue.TopKind {
		kind &^= cue.NullKind
	}

	switch kind {
	case cue.StringKind:
		return path.ScalarOf(value.KindString), nil
	case cue.IntKind:
		return path.ScalarOf(value.KindInt), nil
	case cue.BoolKind:
		return path.ScalarOf(value.KindBool), nil
	case cue.NullKind, cue.TopKind:
		return path.Any(), nil
	case cue.ListKind:
		elem := v.LookupPath(cue.MakePath(cue.AnyIndex))
		if !elem.Exists() {
			return path.ArrayOf(path.Any()), nil
		}
		es, err := compileShape(field+".*", elem)
		if err != nil {
			return nil, err
		}
		return path.ArrayOf(es), nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		fields := make(map[string]*path.Shape)
		for iter.Next() {
			name := iter.Selector().Unquoted()
			fs, err := compileShape(join(field, name), iter.Value())
			if err != nil {
				return nil, err
			}
			fields[name] = fs
		}
		return path.ObjectOf(fields), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float types are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	}
	return nil, &CompileError{
		Field:   field,
		Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
		Pos:     v.Pos(),
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
