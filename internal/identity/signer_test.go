package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	k, err := GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)

	msg := []byte("decision-request-digest")
	sig := k.Sign(msg)
	require.True(t, k.Verify(msg, sig))
	require.False(t, k.Verify([]byte("tampered"), sig))
}

func TestKeyFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	k1, err := KeyFromSeed(seed, time.Unix(0, 0))
	require.NoError(t, err)
	k2, err := KeyFromSeed(seed, time.Unix(0, 0))
	require.NoError(t, err)
	require.Equal(t, k1.ID, k2.ID)
	require.Equal(t, k1.Public, k2.Public)
}

func TestKeyFromSeedRejectsWrongLength(t *testing.T) {
	_, err := KeyFromSeed([]byte{1, 2, 3}, time.Unix(0, 0))
	require.Error(t, err)
}
