package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

func compileOne(t *testing.T, src string, catalog Catalog) *Form {
	t.Helper()
	forms, err := CompileString(src, "test.cue", catalog)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	return forms[0]
}

func fieldRules(t *testing.T, f *Form, p string) validation.Rules {
	t.Helper()
	for _, fd := range f.Fields {
		if fd.Path.String() == p {
			return fd.Rules
		}
	}
	t.Fatalf("field %s not compiled", p)
	return validation.Rules{}
}

func TestCompileYoutube(t *testing.T) {
	f := compileOne(t, youtubeCUE, nil)

	assert.Equal(t, "youtube", f.Name)
	assert.Equal(t, "onTouched", f.Mode)
	assert.Empty(t, f.ReValidateMode)

	var paths []string
	for _, fd := range f.Fields {
		paths = append(paths, fd.Path.String())
	}
	assert.Equal(t, []string{"username", "email", "channel", "social.twitter", "age", "dob"}, paths)

	assert.Equal(t, value.String("Batman"), f.Defaults["username"])
	assert.Equal(t, value.Array{value.Object{"number": value.String("")}}, f.Defaults["phNumbers"])
	assert.Equal(t, value.Int(0), f.Defaults["age"])

	s, err := f.Shape.Resolve(path.MustParse("phNumbers.3.number"))
	require.NoError(t, err)
	assert.Equal(t, value.KindString, s.Kind())
	s, err = f.Shape.Resolve(path.MustParse("age"))
	require.NoError(t, err)
	assert.Equal(t, value.KindInt, s.Kind())
	_, err = f.Shape.Resolve(path.MustParse("social.instagram"))
	assert.True(t, path.IsInvalidPath(err))

	age := fieldRules(t, f, "age")
	assert.True(t, age.ValueAsNumber)
	assert.Equal(t, "Age is required", age.Required.Message)
	assert.True(t, fieldRules(t, f, "dob").ValueAsDate)
	assert.Empty(t, fieldRules(t, f, "dob").Required.Message)
}

func TestCompiledEmailRulesRunInOrder(t *testing.T) {
	f := compileOne(t, youtubeCUE, nil)
	rules := fieldRules(t, f, "email")
	require.Len(t, rules.Validate, 2)
	assert.Equal(t, "notAdmin", rules.Validate[0].Name)
	assert.Equal(t, "notBlacklisted", rules.Validate[1].Name)

	r := validation.NewRunner()
	p := path.MustParse("email")
	tests := []struct {
		in   string
		rule string
		msg  string
	}{
		{"", "required", "Email is required"},
		{"bad", "pattern", "Invalid email format"},
		{"admin@example.com", "notAdmin", "Enter a different email address"},
		{"bob@baddomain.com", "notBlacklisted", "This domain is not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out := r.Field(p, rules, value.String(tt.in), value.Object{})
			require.NotNil(t, out.Err)
			assert.Equal(t, tt.rule, out.Err.Rule)
			assert.Equal(t, tt.msg, out.Err.Message)
		})
	}

	out := r.Field(p, rules, value.String("bruce@wayne.com"), value.Object{})
	assert.Nil(t, out.Err)
}

func TestDeclarativePredicates(t *testing.T) {
	const src = `
form: p: {
	fields: {
		password: validate: long: {minLength: 3, message: "short"}
		confirm: validate: same: {equalsField: "password", message: "mismatch"}
		nick: validate: {
			max: {maxLength: 4, message: "long"}
			other: {notEqualField: "password", message: "same as password"}
		}
		plan: validate: known: {oneOf: ["free", "pro"], message: "unknown plan"}
		seats: validate: cap: {max: 10, message: "too many"}
	}
}
`
	f := compileOne(t, src, nil)
	r := validation.NewRunner()
	values := value.Object{"password": value.String("secret")}

	tests := []struct {
		field string
		v     value.Value
		fail  string
	}{
		{"password", value.String("ab"), "short"},
		{"password", value.String("abc"), ""},
		{"password", value.String(""), ""},
		{"confirm", value.String("secret"), ""},
		{"confirm", value.String("other"), "mismatch"},
		{"nick", value.String("héllo"), "long"},
		{"nick", value.String("héll"), ""},
		{"nick", value.String("secret"), "long"},
		{"plan", value.String("pro"), ""},
		{"plan", value.String("gold"), "unknown plan"},
		{"plan", value.Null{}, ""},
		{"seats", value.Int(11), "too many"},
		{"seats", value.Int(10), ""},
		{"seats", value.String("many"), ""},
	}
	for _, tt := range tests {
		out := r.Field(path.MustParse(tt.field), fieldRules(t, f, tt.field), tt.v, values)
		if tt.fail == "" {
			assert.Nil(t, out.Err, "%s=%v", tt.field, tt.v)
			continue
		}
		if assert.NotNil(t, out.Err, "%s=%v", tt.field, tt.v) {
			assert.Equal(t, tt.fail, out.Err.Message)
		}
	}

	out := r.Field(path.MustParse("nick"), fieldRules(t, f, "nick"), value.String("abc"), value.Object{"password": value.String("abc")})
	require.NotNil(t, out.Err)
	assert.Equal(t, "other", out.Err.Rule)
}

func TestCatalogRefs(t *testing.T) {
	catalog := Catalog{
		"trimmed": validation.Check("", func(v value.Value, _ value.Object) (string, bool) {
			s, _ := v.(value.String)
			return "has spaces", len(s) == 0 || (s[0] != ' ' && s[len(s)-1] != ' ')
		}),
		"available": validation.Async("", func(_ context.Context, v value.Value, _ value.Object) (string, bool, error) {
			return "taken", v != value.String("batman"), nil
		}),
	}
	const src = `
form: refs: fields: {
	username: validate: {
		clean: ref: "trimmed"
		free: {ref: "available", message: "Username already taken"}
	}
}
`
	f := compileOne(t, src, catalog)
	rules := fieldRules(t, f, "username")
	require.Len(t, rules.Validate, 2)
	assert.Equal(t, "clean", rules.Validate[0].Name)
	assert.False(t, rules.Validate[0].IsAsync())
	assert.Equal(t, "free", rules.Validate[1].Name)
	assert.True(t, rules.Validate[1].IsAsync())

	r := validation.NewRunner()
	p := path.MustParse("username")

	out := r.Field(p, rules, value.String(" bob"), value.Object{})
	require.NotNil(t, out.Err)
	assert.Equal(t, "has spaces", out.Err.Message)

	out = r.Field(p, rules, value.String("batman"), value.Object{})
	require.NotNil(t, out.Pending)
	verr, err := out.Pending.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, "free", verr.Rule)
	assert.Equal(t, "Username already taken", verr.Message)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{"float type", `form: f: shape: price: float`, "shape.price", "float"},
		{"float default", `form: f: defaults: price: 1.5`, "defaults.price", "float"},
		{"unknown rule", `form: f: fields: a: minimum: 3`, "fields.a.minimum", "unknown rule"},
		{"two predicates", `form: f: fields: a: validate: x: {min: 1, max: 2}`, "fields.a.validate.x", "both"},
		{"no predicate", `form: f: fields: a: validate: x: message: "m"`, "fields.a.validate.x", "no predicate"},
		{"unknown predicate", `form: f: fields: a: validate: x: bogus: 1`, "fields.a.validate.x.bogus", "unknown predicate"},
		{"unknown ref", `form: f: fields: a: validate: x: ref: "nope"`, "fields.a.validate.x.ref", "unknown predicate"},
		{"bad pattern", `form: f: fields: a: pattern: "("`, "fields.a.pattern", "invalid pattern"},
		{"bad mode", `form: f: mode: "sometimes"`, "mode", "unknown mode"},
		{"both coercions", `form: f: fields: a: {valueAsNumber: true, valueAsDate: true}`, "fields.a", "exclusive"},
		{"undeclared field", `form: f: {shape: a: string, fields: b: required: true}`, "fields.b", "undeclared"},
		{"bad field path", `form: f: fields: "a..b": required: true`, "fields.a..b", "invalid field path"},
		{"default kind", `form: f: {shape: a: int, defaults: a: "x"}`, "defaults", "expected int"},
		{"required kind", `form: f: fields: a: required: 3`, "fields.a.required", "must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src, "bad.cue", nil)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	_, err := CompileString("form: f: shape: price: float\n", "price.cue", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price.cue:1:")
}

func TestRequiredFalseDisablesRule(t *testing.T) {
	f := compileOne(t, `form: f: fields: {a: required: false, b: required: {value: false, message: "m"}}`, nil)
	assert.Nil(t, fieldRules(t, f, "a").Required)
	assert.Nil(t, fieldRules(t, f, "b").Required)
}

func TestNullableAndAnyShapes(t *testing.T) {
	f := compileOne(t, `form: f: shape: {nick: string | null, extra: _, tags: [...]}`, nil)

	s, err := f.Shape.Resolve(path.MustParse("nick"))
	require.NoError(t, err)
	assert.Equal(t, value.KindString, s.Kind())

	_, err = f.Shape.Resolve(path.MustParse("extra.anything.0"))
	assert.NoError(t, err)
	_, err = f.Shape.Resolve(path.MustParse("tags.2"))
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "youtube.cue"), []byte("package test\n"+youtubeCUE), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.cue"), []byte(`package test

form: login: fields: password: required: true
`), 0o644))

	forms, errs := Load(dir, nil)
	require.Empty(t, errs)
	require.Len(t, forms, 2)

	login, ok := Find(forms, "login")
	require.True(t, ok)
	assert.Len(t, login.Fields, 1)
	_, ok = Find(forms, "youtube")
	assert.True(t, ok)
	_, ok = Find(forms, "signup")
	assert.False(t, ok)
}

func TestLoadCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`package test

form: a: shape: x: float
form: b: mode: "never"
form: c: fields: ok: required: true
`), 0o644))

	forms, errs := Load(dir, nil)
	assert.Len(t, errs, 2)
	require.Len(t, forms, 1)
	assert.Equal(t, "c", forms[0].Name)
}

func TestLoadMissingDir(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "missing"), nil)
	require.Len(t, errs, 1)

	_, errs = Load(t.TempDir(), nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no CUE files")
}
