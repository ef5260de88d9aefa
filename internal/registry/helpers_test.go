package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/pkg/value"
)

type recorder struct {
	changes []Change
}

func (r *recorder) Publish(c Change) {
	r.changes = append(r.changes, c)
}

func (r *recorder) kinds() []Kind {
	out := make([]Kind, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Kind
	}
	return out
}

func (r *recorder) last() Change {
	return r.changes[len(r.changes)-1]
}

func youtubeShape() *path.Shape {
	str := path.ScalarOf(value.KindString)
	return path.ObjectOf(map[string]*path.Shape{
		"username": str,
		"email":    str,
		"channel":  str,
		"social": path.ObjectOf(map[string]*path.Shape{
			"twitter":  str,
			"facebook": str,
		}),
		"phoneNumbers": path.ArrayOf(str),
		"phNumbers":    path.ArrayOf(path.ObjectOf(map[string]*path.Shape{"number": str})),
		"age":          path.ScalarOf(value.KindInt),
		"dob":          str,
	})
}

func youtubeDefaults() value.Object {
	return value.Object{
		"username": value.String("Batman"),
		"email":    value.String("bruce@wayne.com"),
		"channel":  value.String(""),
		"social": value.Object{
			"twitter":  value.String(""),
			"facebook": value.String(""),
		},
		"phoneNumbers": value.Array{value.String(""), value.String("")},
		"phNumbers":    value.Array{value.Object{"number": value.String("")}},
		"age":          value.Int(0),
		"dob":          value.String("2024-01-01"),
	}
}

// newReady builds a registry over the demo shape with literal defaults.
func newReady(t *testing.T, opts ...Option) (*Registry, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithShape(youtubeShape()), WithPublisher(rec)}, opts...)
	r := New(opts...)
	t.Cleanup(r.Close)
	require.NoError(t, r.Initialize(context.Background(), Literal(youtubeDefaults())))
	rec.changes = nil
	return r, rec
}

func mp(s string) path.Path {
	return path.MustParse(s)
}
