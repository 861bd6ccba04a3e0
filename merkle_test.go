package merkle

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrite-log/merkle/apperr"
	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/storage/memory"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	backend := memory.New(h, zerolog.Nop())
	tr, err := New(backend, Options{Algorithm: hash.SHA256, Log: zerolog.Nop()})
	require.NoError(t, err)
	return tr
}

func TestEmptyTree(t *testing.T) {
	ctx := context.Background()
	tr := newTestTree(t)

	size, err := tr.GetSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)

	state, err := tr.GetState(ctx)
	require.NoError(t, err)

	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	assert.Equal(t, h.HashEmpty(), state)
}

func TestFiveEntryInclusion(t *testing.T) {
	ctx := context.Background()
	tr := newTestTree(t)

	for _, e := range [][]byte{[]byte("foo"), []byte("bar"), []byte("baz"), []byte("qux"), []byte("quux")} {
		_, err := tr.Append(ctx, e)
		require.NoError(t, err)
	}

	p, err := tr.ProveInclusion(ctx, 2, 5)
	require.NoError(t, err)

	leaf2, err := tr.GetLeaf(ctx, 2)
	require.NoError(t, err)
	state5, err := tr.GetStateAt(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, VerifyInclusion(leaf2, state5, p))

	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	bogus := h.HashLeaf([]byte("random"))
	err = VerifyInclusion(bogus, state5, p)
	require.Error(t, err)
	ipe, ok := err.(*apperr.InvalidProofError)
	require.True(t, ok)
	assert.Equal(t, apperr.BaseMismatch, ipe.Discriminator)
}

func TestConsistencyAtGrowth(t *testing.T) {
	ctx := context.Background()
	tr := newTestTree(t)

	for _, e := range [][]byte{[]byte("foo"), []byte("bar"), []byte("baz"), []byte("qux"), []byte("quux")} {
		_, err := tr.Append(ctx, e)
		require.NoError(t, err)
	}
	state1, err := tr.GetState(ctx)
	require.NoError(t, err)

	for _, e := range [][]byte{[]byte("corge"), []byte("grault"), []byte("garlpy")} {
		_, err := tr.Append(ctx, e)
		require.NoError(t, err)
	}
	state2, err := tr.GetState(ctx)
	require.NoError(t, err)

	p, err := tr.ProveConsistency(ctx, 5, 8)
	require.NoError(t, err)
	require.NoError(t, VerifyConsistency(state1, state2, p))

	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	bogus := h.HashLeaf([]byte("random"))
	err = VerifyConsistency(state1, bogus, p)
	require.Error(t, err)
	ipe, ok := err.(*apperr.InvalidProofError)
	require.True(t, ok)
	assert.Equal(t, apperr.LaterStateMismatch, ipe.Discriminator)
}

func TestDomainSeparationSmoke(t *testing.T) {
	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	leaf := h.HashLeaf([]byte(""))
	node := h.HashNodes(h.HashEmpty(), h.HashEmpty())
	assert.NotEqual(t, node, leaf)
}

func TestShapeUniquenessUnderInterleavedReads(t *testing.T) {
	ctx := context.Background()
	entries := make([][]byte, 9)
	for i := range entries {
		entries[i] = []byte{byte(i)}
	}

	treeA := newTestTree(t)
	for _, e := range entries {
		_, err := treeA.Append(ctx, e)
		require.NoError(t, err)
	}
	stateA, err := treeA.GetState(ctx)
	require.NoError(t, err)

	treeB := newTestTree(t)
	for i, e := range entries {
		_, err := treeB.Append(ctx, e)
		require.NoError(t, err)
		if i%2 == 0 {
			_, err := treeB.GetState(ctx)
			require.NoError(t, err)
		}
	}
	stateB, err := treeB.GetState(ctx)
	require.NoError(t, err)

	assert.Equal(t, stateA, stateB)
	for i := uint64(1); i <= 9; i++ {
		la, err := treeA.GetLeaf(ctx, i)
		require.NoError(t, err)
		lb, err := treeB.GetLeaf(ctx, i)
		require.NoError(t, err)
		assert.Equal(t, la, lb)
	}
}

func TestReflexiveConsistency(t *testing.T) {
	ctx := context.Background()
	tr := newTestTree(t)
	for i := 0; i < 6; i++ {
		_, err := tr.Append(ctx, []byte{byte(i)})
		require.NoError(t, err)
	}
	state, err := tr.GetState(ctx)
	require.NoError(t, err)

	p, err := tr.ProveConsistency(ctx, 6, 6)
	require.NoError(t, err)
	require.NoError(t, VerifyConsistency(state, state, p))
}

func TestUnsupportedAlgorithmRejectedAtConstruction(t *testing.T) {
	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	backend := memory.New(h, zerolog.Nop())
	_, err = New(backend, Options{Algorithm: hash.Algorithm("MD5")})
	require.Error(t, err)
}

func TestSecurityDisabledOption(t *testing.T) {
	ctx := context.Background()
	f := false
	h, err := hash.New(hash.SHA256, false)
	require.NoError(t, err)
	backend := memory.New(h, zerolog.Nop())
	tr, err := New(backend, Options{Algorithm: hash.SHA256, Security: &f, Log: zerolog.Nop()})
	require.NoError(t, err)

	_, err = tr.Append(ctx, []byte("foo"))
	require.NoError(t, err)
	leaf1, err := tr.GetLeaf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, h.HashLeaf([]byte("foo")), leaf1)
}
