package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// Modes lists the accepted mode and reValidateMode names.
var Modes = []string{"onSubmit", "onChange", "onBlur", "onTouched", "all"}

// Field is one registered field in declaration order.
type Field struct {
	Path  path.Path
	Rules validation.Rules
}

// Form is a compiled definition.
type Form struct {
	Name           string
	Mode           string
	ReValidateMode string
	Shape          *path.Shape
	Defaults       value.Object
	Fields         []Field
}

// Compile converts the CUE value of one definition, e.g. the value at
// form.signup. Definitions without a shape accept every path.
func Compile(v cue.Value, catalog Catalog) (*Form, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	f := &Form{Defaults: value.Object{}}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		f.Name = sels[len(sels)-1].Unquoted()
	}

	var err error
	if f.Mode, err = compileMode(v, "mode"); err != nil {
		return nil, err
	}
	if f.ReValidateMode, err = compileMode(v, "reValidateMode"); err != nil {
		return nil, err
	}

	if sv := v.LookupPath(cue.ParsePath("shape")); sv.Exists() {
		if f.Shape, err = compileShape("shape", sv); err != nil {
			return nil, err
		}
		if f.Shape.Kind() != value.KindObject {
			return nil, &CompileError{Field: "shape", Message: "shape must be a struct", Pos: sv.Pos()}
		}
	}

	if dv := v.LookupPath(cue.ParsePath("defaults")); dv.Exists() {
		d, err := toValue("defaults", dv)
		if err != nil {
			return nil, err
		}
		obj, ok := d.(value.Object)
		if !ok {
			return nil, &CompileError{Field: "defaults", Message: "defaults must be a struct", Pos: dv.Pos()}
		}
		if err := checkDefaults(f.Shape, obj); err != nil {
			return nil, &CompileError{Field: "defaults", Message: err.Error(), Pos: dv.Pos()}
		}
		f.Defaults = obj
	}

	if fv := v.LookupPath(cue.ParsePath("fields")); fv.Exists() {
		if f.Fields, err = compileFields(fv, f.Shape, catalog); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// checkDefaults verifies every default leaf is declared with a matching
// scalar kind. Null is accepted anywhere.
func checkDefaults(shape *path.Shape, defaults value.Object) error {
	for _, leaf := range path.Leaves(path.Root, defaults) {
		s, err := shape.Resolve(leaf)
		if err != nil {
			return err
		}
		v, _ := path.Get(defaults, leaf)
		switch want := s.Kind(); want {
		case value.KindString, value.KindInt, value.KindBool:
			if got := value.KindOf(v); got != want && got != value.KindNull {
				return fmt.Errorf("%s: expected %s, found %s", leaf, want, got)
			}
		}
	}
	return nil
}

func compileMode(v cue.Value, key string) (string, error) {
	mv := v.LookupPath(cue.ParsePath(key))
	if !mv.Exists() {
		return "", nil
	}
	m, err := stringAt(key, mv)
	if err != nil {
		return "", err
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", &CompileError{Field: key, Message: fmt.Sprintf("unknown mode %q", m), Pos: mv.Pos()}
}

func compileFields(v cue.Value, shape *path.Shape, catalog Catalog) ([]Field, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Field
	for iter.Next() {
		label := iter.Selector().Unquoted()
		at := "fields." + label

		p, err := path.Parse(label)
		if err != nil || p.IsRoot() {
			return nil, &CompileError{Field: at, Message: fmt.Sprintf("invalid field path %q", label), Pos: iter.Value().Pos()}
		}
		if _, err := shape.Resolve(p); err != nil {
			return nil, &CompileError{Field: at, Message: err.Error(), Pos: iter.Value().Pos()}
		}

		rules, err := compileRules(at, iter.Value(), catalog)
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Path: p, Rules: rules})
	}
	return out, nil
}

// CompileString compiles every definition in a CUE source.
func CompileString(src, filename string, catalog Catalog) ([]*Form, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	forms, errs := collect(v, catalog)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return forms, nil
}

// Load compiles every definition in the CUE package at dir. Errors are
// collected so a caller can report all of them.
func Load(dir string, catalog Catalog) ([]*Form, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("specs directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, []error{fmt.Errorf("scanning %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded")}
	}
	if err := instances[0].Err; err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", err)}
	}

	v := ctx.BuildInstance(instances[0])
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	forms, errs := collect(v, catalog)
	if len(forms) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no forms defined in %s", dir))
	}
	return forms, errs
}

func collect(v cue.Value, catalog Catalog) ([]*Form, []error) {
	fv := v.LookupPath(cue.ParsePath("form"))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		forms []*Form
		errs  []error
	)
	for iter.Next() {
		f, err := Compile(iter.Value(), catalog)
		if err != nil {
			errs = append(errs, fmt.Errorf("form %s: %w", iter.Selector().Unquoted(), err))
			continue
		}
		forms = append(forms, f)
	}
	return forms, errs
}

// Find returns the definition named name.
func Find(forms []*Form, name string) (*Form, bool) {
	for _, f := range forms {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
