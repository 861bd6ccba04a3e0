package cache

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissThenPutThenHit(t *testing.T) {
	c := New(1<<20, zerolog.Nop())
	key := Key{Offset: 0, Width: 128}

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Put(key, []byte("digest"))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("digest"), got)
}

func TestPutIsIdempotentOnExistingKey(t *testing.T) {
	c := New(1<<20, zerolog.Nop())
	key := Key{Offset: 0, Width: 128}

	c.Put(key, []byte("first"))
	c.Put(key, []byte("second"))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("first"), got, "first writer wins; inserts are idempotent")
}

func TestByteBudgetEvictsLeastRecentlyUsed(t *testing.T) {
	digest := make([]byte, 10)
	c := New(25, zerolog.Nop())

	k1 := Key{Offset: 0, Width: 128}
	k2 := Key{Offset: 128, Width: 128}
	k3 := Key{Offset: 256, Width: 128}

	c.Put(k1, digest)
	c.Put(k2, digest)
	// touch k1 so it is more recently used than k2
	c.Get(k1)
	c.Put(k3, digest)

	_, k2ok := c.Get(k2)
	_, k1ok := c.Get(k1)
	_, k3ok := c.Get(k3)

	assert.False(t, k2ok, "k2 should have been evicted as least recently used")
	assert.True(t, k1ok)
	assert.True(t, k3ok)
}

func TestLenReflectsEntryCount(t *testing.T) {
	c := New(1<<20, zerolog.Nop())
	assert.Equal(t, 0, c.Len())
	c.Put(Key{Offset: 0, Width: 128}, []byte("x"))
	assert.Equal(t, 1, c.Len())
}
