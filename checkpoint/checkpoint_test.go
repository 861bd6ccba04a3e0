package checkpoint

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/sumdb/note"

	"github.com/dendrite-log/merkle"
	"github.com/dendrite-log/merkle/hash"
	"github.com/dendrite-log/merkle/storage/memory"
)

func newKeys(t *testing.T, origin string) (note.Signer, note.Verifier) {
	t.Helper()
	skey, vkey, err := note.GenerateKey(rand.Reader, origin)
	require.NoError(t, err)
	signer, err := note.NewSigner(skey)
	require.NoError(t, err)
	verifier, err := note.NewVerifier(vkey)
	require.NoError(t, err)
	return signer, verifier
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	origin := "example.com/test-log"
	signer, verifier := newKeys(t, origin)

	c := Checkpoint{Origin: origin, Size: 10, Hash: []byte("0123456789abcdef0123456789abcdef")}
	signed, err := Sign(c, signer)
	require.NoError(t, err)

	got, err := Verify(signed, origin, verifier)
	require.NoError(t, err)
	require.Equal(t, c.Origin, got.Origin)
	require.Equal(t, c.Size, got.Size)
	require.Equal(t, c.Hash, got.Hash)
}

func TestVerifyRejectsWrongOrigin(t *testing.T) {
	origin := "example.com/test-log"
	signer, verifier := newKeys(t, origin)

	signed, err := Sign(Checkpoint{Origin: origin, Size: 3, Hash: []byte("digest")}, signer)
	require.NoError(t, err)

	_, err = Verify(signed, "example.com/other-log", verifier)
	require.Error(t, err)
}

func TestVerifyRejectsTamperedNote(t *testing.T) {
	origin := "example.com/test-log"
	signer, verifier := newKeys(t, origin)

	signed, err := Sign(Checkpoint{Origin: origin, Size: 3, Hash: []byte("digest")}, signer)
	require.NoError(t, err)
	signed[len(signed)-2] ^= 0xff

	_, err = Verify(signed, origin, verifier)
	require.Error(t, err)
}

func TestSignStateReadsTreeThroughGetState(t *testing.T) {
	ctx := context.Background()
	origin := "example.com/test-log"
	signer, verifier := newKeys(t, origin)

	h, err := hash.New(hash.SHA256, true)
	require.NoError(t, err)
	backend := memory.New(h, zerolog.Nop())
	tr, err := merkle.New(backend, merkle.Options{Algorithm: hash.SHA256, Log: zerolog.Nop()})
	require.NoError(t, err)

	for _, e := range [][]byte{[]byte("a"), []byte("b"), []byte("c")} {
		_, err := tr.Append(ctx, e)
		require.NoError(t, err)
	}
	state, err := tr.GetState(ctx)
	require.NoError(t, err)

	signed, err := SignState(ctx, tr, origin, signer)
	require.NoError(t, err)

	got, err := Verify(signed, origin, verifier)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got.Size)
	require.Equal(t, state, got.Hash)
}
