package hash

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmptyMatchesRawSHA256(t *testing.T) {
	h, err := New(SHA256, true)
	require.NoError(t, err)
	want := sha256.Sum256(nil)
	assert.Equal(t, want[:], h.HashEmpty())
}

func TestSecurityDomainSeparation(t *testing.T) {
	h, err := New(SHA256, true)
	require.NoError(t, err)

	leaf := h.HashLeaf([]byte(""))
	node := h.HashNodes(h.HashEmpty(), h.HashEmpty())
	assert.False(t, bytes.Equal(leaf, node), "hash_leaf and hash_nodes must diverge under domain separation")
}

func TestSecurityDisabledIsRawConcatenation(t *testing.T) {
	h, err := New(SHA256, false)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("abc"))
	assert.Equal(t, want[:], h.HashLeaf([]byte("abc")))

	l, r := []byte("left"), []byte("right")
	want2 := sha256.Sum256(append(append([]byte{}, l...), r...))
	assert.Equal(t, want2[:], h.HashNodes(l, r))
}

func TestUnsupportedAlgorithmRejected(t *testing.T) {
	_, err := New(Algorithm("MD5"), true)
	require.Error(t, err)
}

func TestAllRequiredAlgorithmsConstruct(t *testing.T) {
	for _, alg := range []Algorithm{SHA224, SHA256, SHA384, SHA512, SHA3_224, SHA3_256, SHA3_384, SHA3_512} {
		t.Run(string(alg), func(t *testing.T) {
			h, err := New(alg, true)
			require.NoError(t, err)
			require.NotEmpty(t, h.HashEmpty())
		})
	}
}

func TestConsumeIsRawPassthrough(t *testing.T) {
	h, err := New(SHA256, true)
	require.NoError(t, err)
	want := sha256.Sum256([]byte("xyz"))
	assert.Equal(t, want[:], h.Consume([]byte("xyz")))
}
