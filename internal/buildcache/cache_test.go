package buildcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestPutGetRoundtrip(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put("k1", "int main() {}"))
	got, ok, err := cache.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "int main() {}", got)

	// Overwrites replace the previous artifact.
	require.NoError(t, cache.Put("k1", "void f() {}"))
	got, ok, err = cache.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "void f() {}", got)
}

func TestStatsAndClear(t *testing.T) {
	cache := openTestCache(t)
	require.NoError(t, cache.Put("a", "x"))
	require.NoError(t, cache.Put("b", "y"))

	n, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, cache.Clear())
	n, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBuildIDIsFresh(t *testing.T) {
	a := openTestCache(t)
	b := openTestCache(t)
	assert.NotEmpty(t, a.BuildID)
	assert.NotEqual(t, a.BuildID, b.BuildID)
}
