package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	items := []string{"a", "b", "b"}

	r := Find(items, func(s string) bool { return s == "a" })
	assert.Equal(t, Unique, r.Match)
	assert.True(t, r.Found())
	v, err := r.Unique("label a")
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	r = Find(items, func(s string) bool { return s == "b" })
	assert.Equal(t, Ambiguous, r.Match)
	assert.Equal(t, 2, r.Candidates)
	assert.Equal(t, "b", r.Value)
	_, err = r.Unique("label b")
	assert.True(t, errors.Is(err, ErrAmbiguous))

	r = Find(items, func(s string) bool { return s == "c" })
	assert.Equal(t, NotFound, r.Match)
	_, err = r.Unique("label c")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMatch_String(t *testing.T) {
	assert.Equal(t, "unique", Unique.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "not found", NotFound.String())
}
