package schema

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cuelang.org/go/cue"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// Catalog holds Go predicates that definitions reference with ref.
type Catalog map[string]validation.Custom

// compileRules converts one fields entry.
func compileRules(field string, v cue.Value, catalog Catalog) (validation.Rules, error) {
	var rules validation.Rules

	iter, err := v.Fields()
	if err != nil {
		return rules, formatCUEError(err)
	}
	for iter.Next() {
		key := iter.Selector().Unquoted()
		at := field + "." + key
		val := iter.Value()

		switch key {
		case validation.RuleRequired:
			rules.Required, err = compileRequired(at, val)
		case validation.RulePattern:
			rules.Pattern, err = compilePattern(at, val)
		case validation.RuleValidate:
			rules.Validate, err = compileCustoms(at, val, catalog)
		case "valueAsNumber":
			rules.ValueAsNumber, err = boolAt(at, val)
		case "valueAsDate":
			rules.ValueAsDate, err = boolAt(at, val)
		default:
			err = &CompileError{Field: at, Message: "unknown rule", Pos: val.Pos()}
		}
		if err != nil {
			return rules, err
		}
	}

	if rules.ValueAsNumber && rules.ValueAsDate {
		return rules, &CompileError{Field: field, Message: "valueAsNumber and valueAsDate are exclusive", Pos: v.Pos()}
	}
	return rules, nil
}

// compileRequired accepts true, a message string, or {value, message}.
func compileRequired(field string, v cue.Value) (*validation.Required, error) {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		b, err := boolAt(field, v)
		if err != nil || !b {
			return nil, err
		}
		return validation.RequiredRule(""), nil
	case cue.StringKind:
		msg, err := stringAt(field, v)
		if err != nil {
			return nil, err
		}
		return validation.RequiredRule(msg), nil
	case cue.StructKind:
		on := true
		if vv := v.LookupPath(cue.ParsePath("value")); vv.Exists() {
			b, err := boolAt(field+".value", vv)
			if err != nil {
				return nil, err
			}
			on = b
		}
		msg, err := optionalMessage(field, v)
		if err != nil || !on {
			return nil, err
		}
		return validation.RequiredRule(msg), nil
	}
	return nil, &CompileError{Field: field, Message: "must be a bool, a message or {value, message}", Pos: v.Pos()}
}

// compilePattern accepts an expression string or {value, message}.
func compilePattern(field string, v cue.Value) (*validation.Pattern, error) {
	var (
		expr, msg string
		err       error
	)
	switch v.IncompleteKind() {
	case cue.StringKind:
		expr, err = stringAt(field, v)
	case cue.StructKind:
		vv := v.LookupPath(cue.ParsePath("value"))
		if !vv.Exists() {
			return nil, &CompileError{Field: field + ".value", Message: "pattern value is required", Pos: v.Pos()}
		}
		if expr, err = stringAt(field+".value", vv); err == nil {
			msg, err = optionalMessage(field, v)
		}
	default:
		err = &CompileError{Field: field, Message: "must be an expression or {value, message}", Pos: v.Pos()}
	}
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("invalid pattern: %v", err), Pos: v.Pos()}
	}
	return &validation.Pattern{Value: re, Message: msg}, nil
}

func optionalMessage(field string, v cue.Value) (string, error) {
	mv := v.LookupPath(cue.ParsePath("message"))
	if !mv.Exists() {
		return "", nil
	}
	return stringAt(field+".message", mv)
}

// compileCustoms converts the validate mapping, keeping declaration order.
func compileCustoms(field string, v cue.Value, catalog Catalog) ([]validation.Custom, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []validation.Custom
	for iter.Next() {
		name := iter.Selector().Unquoted()
		c, err := compileCustom(field+"."+name, name, iter.Value(), catalog)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// compileCustom converts one named predicate declaration. Exactly one
// predicate key is allowed besides message.
func compileCustom(field, name string, v cue.Value, catalog Catalog) (validation.Custom, error) {
	msg, err := optionalMessage(field, v)
	if err != nil {
		return validation.Custom{}, err
	}

	iter, err := v.Fields()
	if err != nil {
		return validation.Custom{}, formatCUEError(err)
	}

	var (
		custom validation.Custom
		found  string
	)
	for iter.Next() {
		key := iter.Selector().Unquoted()
		if key == "message" {
			continue
		}
		if found != "" {
			return custom, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("predicate declares both %s and %s", found, key),
				Pos:     iter.Value().Pos(),
			}
		}
		found = key

		at := field + "." + key
		if key == "ref" {
			custom, err = lookupRef(at, iter.Value(), msg, catalog)
		} else {
			var check validation.Predicate
			check, err = declarative(at, key, iter.Value(), msg)
			custom = validation.Check("", check)
		}
		if err != nil {
			return custom, err
		}
	}
	if found == "" {
		return custom, &CompileError{Field: field, Message: "no predicate declared", Pos: v.Pos()}
	}

	custom.Name = name
	return custom, nil
}

func lookupRef(field string, v cue.Value, msg string, catalog Catalog) (validation.Custom, error) {
	ref, err := stringAt(field, v)
	if err != nil {
		return validation.Custom{}, err
	}
	c, ok := catalog[ref]
	if !ok {
		return validation.Custom{}, &CompileError{Field: field, Message: fmt.Sprintf("unknown predicate %q", ref), Pos: v.Pos()}
	}
	if msg == "" {
		return c, nil
	}

	if c.Check != nil {
		check := c.Check
		c.Check = func(v value.Value, values value.Object) (string, bool) {
			_, ok := check(v, values)
			return msg, ok
		}
	} else if c.Async != nil {
		async := c.Async
		c.Async = func(ctx context.Context, v value.Value, values value.Object) (string, bool, error) {
			_, ok, err := async(ctx, v, values)
			return msg, ok, err
		}
	}
	return c, nil
}

// declarative builds the predicate for a built-in declaration. Length,
// range and membership checks pass empty values so they compose with
// required.
func declarative(field, key string, v cue.Value, msg string) (validation.Predicate, error) {
	switch key {
	case "notEqual":
		x, err := toValue(field, v)
		if err != nil {
			return nil, err
		}
		return func(v value.Value, _ value.Object) (string, bool) {
			return msg, !value.Equal(v, x)
		}, nil

	case "notPrefix", "notSuffix":
		s, err := stringAt(field, v)
		if err != nil {
			return nil, err
		}
		has := strings.HasPrefix
		if key == "notSuffix" {
			has = strings.HasSuffix
		}
		return func(v value.Value, _ value.Object) (string, bool) {
			str, ok := v.(value.String)
			return msg, !ok || !has(string(str), s)
		}, nil

	case "equalsField", "notEqualField":
		ps, err := stringAt(field, v)
		if err != nil {
			return nil, err
		}
		other, err := path.Parse(ps)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		want := key == "equalsField"
		return func(v value.Value, values value.Object) (string, bool) {
			o, _ := path.Get(values, other)
			return msg, value.Equal(v, o) == want
		}, nil

	case "minLength", "maxLength":
		n, err := intAt(field, v)
		if err != nil {
			return nil, err
		}
		return func(v value.Value, _ value.Object) (string, bool) {
			if value.IsEmpty(v) {
				return msg, true
			}
			l, ok := length(v)
			if !ok {
				return msg, true
			}
			if key == "minLength" {
				return msg, l >= n
			}
			return msg, l <= n
		}, nil

	case "min", "max":
		n, err := intAt(field, v)
		if err != nil {
			return nil, err
		}
		return func(v value.Value, _ value.Object) (string, bool) {
			i, ok := v.(value.Int)
			if !ok {
				return msg, true
			}
			if key == "min" {
				return msg, int64(i) >= n
			}
			return msg, int64(i) <= n
		}, nil

	case "oneOf":
		list, err := toValue(field, v)
		if err != nil {
			return nil, err
		}
		options, ok := list.(value.Array)
		if !ok {
			return nil, &CompileError{Field: field, Message: "must be a list", Pos: v.Pos()}
		}
		return func(v value.Value, _ value.Object) (string, bool) {
			if value.IsEmpty(v) {
				return msg, true
			}
			for _, o := range options {
				if value.Equal(v, o) {
					return msg, true
				}
			}
			return msg, false
		}, nil
	}

	return nil, &CompileError{Field: field, Message: "unknown predicate", Pos: v.Pos()}
}

func length(v value.Value) (int64, bool) {
	switch x := v.(type) {
	case value.String:
		return int64(utf8.RuneCountInString(string(x))), true
	case value.Array:
		return int64(len(x)), true
	}
	return 0, false
}
