package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	return New(h, zerolog.Nop())
}

func TestAppendAssignsDenseOneBasedIndices(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	i1, err := b.Append(ctx, []byte("foo"))
	require.NoError(t, err)
	i2, err := b.Append(ctx, []byte("bar"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), i1)
	assert.Equal(t, uint64(2), i2)

	size, err := b.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), size)
}

func TestLeafReturnsPrecomputedHashLeafDigest(t *testing.T) {
	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	b := New(h, zerolog.Nop())
	ctx := context.Background()

	_, err = b.Append(ctx, []byte("foo"))
	require.NoError(t, err)

	got, err := b.Leaf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, h.HashLeaf([]byte("foo")), got)
}

func TestLeafOutOfRange(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Append(ctx, []byte("foo"))
	require.NoError(t, err)

	_, err = b.Leaf(ctx, 0)
	assert.IsType(t, &apperr.IndexOutOfRangeError{}, err)

	_, err = b.Leaf(ctx, 2)
	assert.IsType(t, &apperr.IndexOutOfRangeError{}, err)
}

func TestLeavesReturnsOrderedRange(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	for _, e := range [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")} {
		_, err := b.Append(ctx, e)
		require.NoError(t, err)
	}

	got, err := b.Leaves(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	l2, err := b.Leaf(ctx, 2)
	require.NoError(t, err)
	l3, err := b.Leaf(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, l2, got[0])
	assert.Equal(t, l3, got[1])
}

func TestLeavesOutOfRange(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Append(ctx, []byte("foo"))
	require.NoError(t, err)

	_, err = b.Leaves(ctx, 0, 2)
	assert.IsType(t, &apperr.IndexOutOfRangeError{}, err)
}

func TestEntryReturnsOriginalBlob(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Append(ctx, []byte("foo"))
	require.NoError(t, err)

	got, err := b.Entry(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), got)
}
