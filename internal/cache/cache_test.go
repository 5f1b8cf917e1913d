package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the result cache:
// - Keys are stable for identical content and rule sets
// - Keys differ on content or rule-set changes
// - Put/Get round-trips an entry; misses return nil
// - Put replaces an existing key
// - Prune removes only stale entries

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestKey(t *testing.T) {
	t.Parallel()

	content := []byte("function a() {}\n")
	rules := []string{"stepdown", "nested"}

	assert.Equal(t, Key(content, rules), Key(content, rules))
	assert.NotEqual(t, Key(content, rules), Key([]byte("function b() {}\n"), rules))
	assert.NotEqual(t, Key(content, rules), Key(content, []string{"stepdown"}))
	assert.Len(t, Key(content, rules), 16)
}

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	miss, err := c.Get("absent")
	require.NoError(t, err)
	assert.Nil(t, miss)

	entry := &Entry{
		Key:        "k1",
		Path:       "src/app.ts",
		Clean:      false,
		Violations: 2,
		Cycles:     1,
	}
	require.NoError(t, c.Put(entry))

	got, err := c.Get("k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "src/app.ts", got.Path)
	assert.False(t, got.Clean)
	assert.Equal(t, 2, got.Violations)
	assert.Equal(t, 1, got.Cycles)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCache_Replace(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	require.NoError(t, c.Put(&Entry{Key: "k", Path: "a.ts", Clean: false, Violations: 3}))
	require.NoError(t, c.Put(&Entry{Key: "k", Path: "a.ts", Clean: true}))

	got, err := c.Get("k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Clean)
	assert.Zero(t, got.Violations)
}

func TestCache_Prune(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)
	require.NoError(t, c.Put(&Entry{Key: "fresh", Path: "a.ts", Clean: true}))

	removed, err := c.Prune(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	got, err := c.Get("fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)

	// wait past the cutoff so the entry goes stale
	time.Sleep(2100 * time.Millisecond)
	removed, err = c.Prune(time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
