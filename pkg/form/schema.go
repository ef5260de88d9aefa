package form

import (
	"context"
	"fmt"

	"github.com/roach88/formstate/internal/schema"
)

// Definition is a form compiled from CUE.
type Definition = schema.Form

// Catalog holds Go predicates a definition references with ref.
type Catalog = schema.Catalog

type CompileError = schema.CompileError

var (
	CompileDefinitions = schema.CompileString
	LoadDefinitions    = schema.Load
)

// FromSchema creates a form from a compiled definition and registers its
// fields. opts are applied after the definition's own settings, so they
// can override its mode or defaults.
func FromSchema(ctx context.Context, def *Definition, opts ...Option) (*Form, error) {
	base := []Option{
		WithShape(def.Shape),
		WithDefaults(Literal(def.Defaults)),
	}
	if def.Mode != "" {
		m, err := ParseMode(def.Mode)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", def.Name, err)
		}
		base = append(base, WithMode(m))
	}
	if def.ReValidateMode != "" {
		m, err := ParseMode(def.ReValidateMode)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", def.Name, err)
		}
		base = append(base, WithReValidateMode(m))
	}

	f, err := New(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", def.Name, err)
	}
	for _, fd := range def.Fields {
		if err := f.Register(fd.Path, fd.Rules); err != nil {
			f.Close()
			return nil, fmt.Errorf("form %s: register %s: %w", def.Name, fd.Path, err)
		}
	}
	return f, nil
}
