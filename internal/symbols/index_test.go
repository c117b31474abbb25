package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	var ix Index[int]

	_, ok := ix.Get("example.com/app.Alpha")
	assert.False(t, ok, "zero value is empty")

	assert.True(t, ix.Put("example.com/app.Alpha", 1))
	assert.False(t, ix.Put("example.com/app.Alpha", 2), "put replaces")
	assert.False(t, ix.Add("example.com/app.Alpha", 3), "add keeps the first value")
	assert.True(t, ix.Add("example.com/app.Beta", 4))

	v, ok := ix.Get("example.com/app.Alpha")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []int{2, 4}, ix.Values())

	clone := ix.Clone()
	assert.True(t, ix.Delete("example.com/app.Alpha"))
	assert.False(t, ix.Delete("example.com/app.Alpha"))
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, 2, clone.Len())
	assert.Equal(t, []int{2, 4}, clone.Values())
}

func TestIndex_DigestCollision(t *testing.T) {
	ix := Index[string]{hash: func(string) uint64 { return 7 }}

	names := []string{"example.com/app.Gamma", "example.com/app.Alpha", "example.com/lib.Alpha"}
	for _, name := range names {
		require.True(t, ix.Add(name, name))
	}
	require.Len(t, ix.buckets, 1, "every name shares one bucket")
	assert.Equal(t, 3, ix.Len())

	for _, name := range names {
		v, ok := ix.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, v)
	}
	_, ok := ix.Get("example.com/app.Delta")
	assert.False(t, ok)

	clone := ix.Clone()
	assert.True(t, ix.Delete("example.com/app.Alpha"))
	assert.Equal(t, []string{"example.com/app.Gamma", "example.com/lib.Alpha"}, ix.Values())
	assert.Equal(t, 3, clone.Len())

	v, ok := clone.Get("example.com/app.Alpha")
	require.True(t, ok, "clone keeps its own bucket")
	assert.Equal(t, "example.com/app.Alpha", v)
}

func TestHashName(t *testing.T) {
	assert.Equal(t, HashName("example.com/app.Alpha"), HashName("example.com/app.Alpha"))
	assert.NotEqual(t, HashName("example.com/app.Alpha"), HashName("*example.com/app.Alpha"))
}
