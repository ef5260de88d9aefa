package form_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/pkg/form"
	"github.com/roach88/formstate/pkg/value"
)

const signupCUE = `
form: signup: {
	mode: "onBlur"
	shape: {
		username: string
		email:    string
		phNumbers: [...{number: string}]
	}
	defaults: {
		username: "Batman"
		phNumbers: [{number: ""}]
	}
	fields: {
		username: required: "Username is required"
		email: {
			required: "Email is required"
			pattern: {value: "^[^@ ]+@[^@ ]+$", message: "Invalid email format"}
			validate: notBlacklisted: {notSuffix: "baddomain.com", message: "This domain is not supported"}
		}
	}
}
`

func TestFromSchema(t *testing.T) {
	defs, err := form.CompileDefinitions(signupCUE, "signup.cue", nil)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	f, err := form.FromSchema(context.Background(), defs[0])
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []form.Path{mp("email"), mp("username")}, f.Fields())

	email, err := f.GetValue(mp("email"))
	require.NoError(t, err)
	assert.Equal(t, value.String(""), email)

	require.NoError(t, f.Change(mp("email"), "bob@baddomain.com"))
	assert.Empty(t, f.State().Errors)
	require.NoError(t, f.Blur(mp("email")))
	assert.Equal(t, map[string]string{"email": "notBlacklisted"}, f.State().Errors.Rules())

	err = f.SetValue(mp("nickname"), value.String("x"), form.SetOptions{})
	assert.True(t, form.IsInvalidPath(err))
}

func TestFromSchemaOptionsOverride(t *testing.T) {
	defs, err := form.CompileDefinitions(signupCUE, "signup.cue", nil)
	require.NoError(t, err)

	f, err := form.FromSchema(context.Background(), defs[0],
		form.WithMode(form.OnChange),
		form.WithDefaults(form.Literal(value.Object{"username": value.String("Robin")})),
	)
	require.NoError(t, err)
	defer f.Close()

	username, err := f.GetValue(mp("username"))
	require.NoError(t, err)
	assert.Equal(t, value.String("Robin"), username)

	require.NoError(t, f.Change(mp("username"), ""))
	assert.Equal(t, "Username is required", f.State().Errors["username"].Message)
}
