package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 1, true)
	require.NoError(t, err)

	key := Key("src/app.tsx", "@internal-only", "restricted")
	hash := HashBytes([]byte("const a = 1;"))

	_, ok := c.Get(key, hash)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, c.Set(key, hash, []byte("pruned output")))

	data, ok := c.Get(key, hash)
	require.True(t, ok)
	assert.Equal(t, []byte("pruned output"), data)
}

func TestCache_HashMismatch(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 1, true)
	require.NoError(t, err)

	key := Key("src/app.tsx", "@internal-only", "restricted")
	require.NoError(t, c.Set(key, HashBytes([]byte("v1")), []byte("out")))

	_, ok := c.Get(key, HashBytes([]byte("v2")))
	assert.False(t, ok, "changed content must invalidate the entry")
}

func TestCache_KeySensitivity(t *testing.T) {
	base := Key("src/app.tsx", "@internal-only", "restricted")

	assert.NotEqual(t, base, Key("src/other.tsx", "@internal-only", "restricted"))
	assert.NotEqual(t, base, Key("src/app.tsx", "@acme-private", "restricted"))
	assert.NotEqual(t, base, Key("src/app.tsx", "@internal-only", "internal"))
	assert.Equal(t, base, Key("src/app.tsx", "@internal-only", "restricted"))
}

func TestCache_Disabled(t *testing.T) {
	c, err := New("", 0, false)
	require.NoError(t, err)

	key := Key("a", "b", "c")
	require.NoError(t, c.Set(key, "h", []byte("x")))

	_, ok := c.Get(key, "h")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"), 1, true)
	require.NoError(t, err)

	key := Key("src/app.tsx", "m", "restricted")
	hash := HashBytes([]byte("src"))
	require.NoError(t, c.Set(key, hash, []byte("out")))

	require.NoError(t, c.Clear())

	_, ok := c.Get(key, hash)
	assert.False(t, ok)
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("alpha"))
	b := HashBytes([]byte("beta"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashBytes([]byte("alpha")))
	assert.Len(t, a, 64)
}
