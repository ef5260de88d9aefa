package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// gate is an async predicate whose answers are released by the test.
type gate struct {
	answers chan bool
}

func newGate() *gate {
	return &gate{answers: make(chan bool, 4)}
}

func (g *gate) rule() validation.Custom {
	return validation.Async("available", func(ctx context.Context, _ value.Value, _ value.Object) (string, bool, error) {
		select {
		case ok := <-g.answers:
			return "Username is taken", ok, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	})
}

func TestAsyncKeepsPriorErrorUntilSettled(t *testing.T) {
	r, rec := newReady(t)
	g := newGate()
	require.NoError(t, r.Register(mp("username"), validation.Rules{
		Required: validation.RequiredRule("Username is required"),
		Validate: []validation.Custom{g.rule()},
	}))

	require.NoError(t, r.SetValue(mp("username"), value.String(""), SetOptions{ShouldValidate: true}))
	assert.Equal(t, validation.RuleRequired, r.State().Errors["username"].Rule)

	require.NoError(t, r.SetValue(mp("username"), value.String("Robin"), SetOptions{ShouldValidate: true}))
	st := r.State()
	assert.True(t, st.IsValidating)
	assert.Equal(t, validation.RuleRequired, st.Errors["username"].Rule, "no flicker to empty while pending")

	g.answers <- false
	rec.changes = nil
	require.NoError(t, r.Await(awaitCtx(t)))

	st = r.State()
	assert.False(t, st.IsValidating)
	assert.Equal(t, validation.Error{Path: "username", Rule: "available", Message: "Username is taken"}, st.Errors["username"])
	require.Len(t, rec.changes, 1)
	assert.Equal(t, KindValidate, rec.changes[0].Kind)
}

func TestStaleAsyncResultDiscarded(t *testing.T) {
	r, _ := newReady(t)

	first := make(chan struct{})
	second := make(chan struct{})
	require.NoError(t, r.Register(mp("username"), validation.Rules{Validate: []validation.Custom{
		validation.Async("available", func(ctx context.Context, v value.Value, _ value.Object) (string, bool, error) {
			if v == value.String("old") {
				<-first
				return "old rejected", false, nil
			}
			<-second
			return "", true, nil
		}),
	}}))

	require.NoError(t, r.SetValue(mp("username"), value.String("old"), SetOptions{ShouldValidate: true}))
	require.NoError(t, r.SetValue(mp("username"), value.String("new"), SetOptions{ShouldValidate: true}))

	// The newer run settles first, then the superseded one arrives.
	close(second)
	close(first)
	require.NoError(t, r.Await(awaitCtx(t)))

	assert.Empty(t, r.State().Errors, "last writer by sequence wins, not by completion order")
	assert.False(t, r.State().IsValidating)
}

func TestValidateAllWaitsForAsync(t *testing.T) {
	r, rec := newReady(t)
	g := newGate()
	require.NoError(t, r.Register(mp("username"), validation.Rules{Validate: []validation.Custom{g.rule()}}))
	require.NoError(t, r.Register(mp("channel"), validation.Rules{Required: validation.RequiredRule("Channel is required")}))
	rec.changes = nil

	g.answers <- true
	errs, err := r.ValidateAll(awaitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"channel": validation.RuleRequired}, errs.Rules())
	assert.Equal(t, errs, r.State().Errors)
	assert.Equal(t, []Kind{KindValidate}, rec.kinds())
}

func TestValidateAllSupersedesInFlight(t *testing.T) {
	r, _ := newReady(t)
	g := newGate()
	require.NoError(t, r.Register(mp("username"), validation.Rules{Validate: []validation.Custom{g.rule()}}))

	require.NoError(t, r.Validate(mp("username")))
	assert.True(t, r.State().IsValidating)

	g.answers <- true // consumed by whichever run asks first
	g.answers <- true
	_, err := r.ValidateAll(awaitCtx(t))
	require.NoError(t, err)
	assert.False(t, r.State().IsValidating)

	require.NoError(t, r.Await(awaitCtx(t)))
	assert.Empty(t, r.State().Errors)
}

func TestValidateWithoutPathsRunsAll(t *testing.T) {
	r, _ := newReady(t)
	require.NoError(t, r.Register(mp("channel"), validation.Rules{Required: validation.RequiredRule("")}))
	require.NoError(t, r.Register(mp("social.twitter"), validation.Rules{Required: validation.RequiredRule("")}))
	require.NoError(t, r.Register(mp("username"), validation.Rules{Required: validation.RequiredRule("")}))

	require.NoError(t, r.Validate())
	assert.Equal(t, []string{"channel", "social.twitter"}, r.State().Errors.Paths())

	// A parent path validates the fields below it.
	require.NoError(t, r.SetValue(mp("social"), value.Object{"twitter": value.String("@b"), "facebook": value.String("")}, SetOptions{ShouldValidate: true}))
	assert.Equal(t, []string{"channel"}, r.State().Errors.Paths())
}
