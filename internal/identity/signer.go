// Package identity implements Ed25519 signing and verification over the
// canonical encodings produced by internal/canon, plus key rotation via
// KeyRing. Nothing here ever logs a private key or signature preimage.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownKey is returned when a signature references a key_id the
// KeyRing has never seen.
var ErrUnknownKey = errors.New("identity: unknown key id")

// ErrSignatureInvalid is returned when a signature fails verification
// against the named key.
var ErrSignatureInvalid = errors.New("identity: signature invalid")

// Key is a single Ed25519 keypair with the time it became valid.
type Key struct {
	ID        string
	Public    ed25519.PublicKey
	private   ed25519.PrivateKey
	ValidFrom time.Time
}

// GenerateKey creates a new random Ed25519 key, id'd by the hex of the
// first 8 bytes of its public key.
func GenerateKey(validFrom time.Time) (Key, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Key{}, fmt.Errorf("identity: generate key: %w", err)
	}
	return Key{
		ID:        hex.EncodeToString(pub[:8]),
		Public:    pub,
		private:   priv,
		ValidFrom: validFrom,
	}, nil
}

// KeyFromSeed rebuilds a Key from a stored 32-byte Ed25519 seed, for
// loading a signing identity from configuration rather than generating
// one at random each process start.
func KeyFromSeed(seed []byte, validFrom time.Time) (Key, error) {
	if len(seed) != ed25519.SeedSize {
		return Key{}, fmt.Errorf("identity: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return Key{
		ID:        hex.EncodeToString(pub[:8]),
		Public:    pub,
		private:   priv,
		ValidFrom: validFrom,
	}, nil
}

// Sign signs msg with this key, returning a fixed-width 64-byte signature.
func (k Key) Sign(msg []byte) [64]byte {
	sig := ed25519.Sign(k.private, msg)
	var out [64]byte
	copy(out[:], sig)
	return out
}

// Verify checks sig against msg under this key's public half.
func (k Key) Verify(msg []byte, sig [64]byte) bool {
	return ed25519.Verify(k.Public, msg, sig[:])
}
