package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyRingRotationKeepsOldKeyVerifiable(t *testing.T) {
	k1, err := GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)
	ring := NewKeyRing(k1)

	msg := []byte("entry-body")
	keyID, sig := ring.Sign(msg)
	require.Equal(t, k1.ID, keyID)

	k2, err := GenerateKey(time.Unix(100, 0))
	require.NoError(t, err)
	ring.Rotate(k2)

	require.Equal(t, k2.ID, ring.Active().ID)
	require.NoError(t, ring.Verify(keyID, msg, sig))
}

func TestKeyRingVerifyUnknownKey(t *testing.T) {
	k1, err := GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)
	ring := NewKeyRing(k1)

	err = ring.Verify("deadbeef", []byte("msg"), [64]byte{})
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyRingVerifyBadSignature(t *testing.T) {
	k1, err := GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)
	ring := NewKeyRing(k1)

	_, sig := ring.Sign([]byte("one message"))
	err = ring.Verify(k1.ID, []byte("a different message"), sig)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}
