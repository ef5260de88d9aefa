package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("phNumbers.1.number")
	require.NoError(t, err)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, Segment{Key: "phNumbers"}, p.At(0))
	assert.Equal(t, Segment{Index: 1, IsIndex: true}, p.At(1))
	assert.Equal(t, Segment{Key: "number"}, p.At(2))
	assert.Equal(t, "phNumbers.1.number", p.String())

	zero, err := Parse("phNumbers.0.number")
	require.NoError(t, err)
	assert.Equal(t, Segment{Index: 0, IsIndex: true}, zero.At(1))
	assert.Equal(t, "phNumbers.0.number", zero.String())
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", ".", "a..b", "a.", ".a", "a.-1", "a.00", "phNumbers.01.number"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, IsInvalidPath(err))
		})
	}
}

func TestPathBuilders(t *testing.T) {
	p := MustParse("phNumbers").Index(0).Key("number")
	assert.Equal(t, "phNumbers.0.number", p.String())
	assert.True(t, p.Equal(MustParse("phNumbers.0.number")))
	assert.Equal(t, "phNumbers.0", p.Parent().String())
	assert.True(t, Root.Parent().IsRoot())
	assert.Equal(t, Segment{Key: "number"}, p.Last())
	assert.Equal(t, "social.twitter", MustParse("social").Join(MustParse("twitter")).String())
}

func TestHasPrefixAndRelated(t *testing.T) {
	arr := MustParse("phNumbers")
	item := MustParse("phNumbers.0.number")
	other := MustParse("phoneNumbers.0")

	assert.True(t, item.HasPrefix(arr))
	assert.False(t, arr.HasPrefix(item))
	assert.True(t, arr.Related(item))
	assert.True(t, item.Related(arr))
	assert.False(t, other.Related(arr))
	assert.True(t, item.HasPrefix(Root))

	rest, ok := item.TrimPrefix(arr)
	require.True(t, ok)
	assert.Equal(t, "0.number", rest.String())

	_, ok = arr.TrimPrefix(item)
	assert.False(t, ok)
}

func TestSegmentsIsCopy(t *testing.T) {
	p := MustParse("a.b")
	segs := p.Segments()
	segs[0].Key = "z"
	assert.Equal(t, "a.b", p.String())
	assert.Equal(t, "a", p.At(0).Key)
}
