package identity

import (
	"sync"
	"time"
)

// KeyRing holds the signer's key history and publishes the current
// signing key behind a lock, following the teacher's atomic-pointer
// publish-once-swap pattern for the active policy (internal/cedar's
// policySet). Rotation adds a new key; old keys remain available for
// Verify of previously-issued signatures but are never returned as the
// active signer once superseded.
type KeyRing struct {
	mu      sync.RWMutex
	keys    map[string]Key
	current string
}

// NewKeyRing builds a ring whose first key is immediately active.
func NewKeyRing(initial Key) *KeyRing {
	return &KeyRing{
		keys:    map[string]Key{initial.ID: initial},
		current: initial.ID,
	}
}

// Rotate adds a new key and makes it the active signer. The previous key
// remains in the ring for Verify.
func (r *KeyRing) Rotate(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.ID] = k
	r.current = k.ID
}

// Active returns the current signing key.
func (r *KeyRing) Active() Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[r.current]
}

// Sign signs msg with the active key and returns the key id alongside
// the signature, since a verifier needs to know which public key to
// check against.
func (r *KeyRing) Sign(msg []byte) (keyID string, sig [64]byte) {
	k := r.Active()
	return k.ID, k.Sign(msg)
}

// Verify checks sig against msg under the named key id, failing closed
// with ErrUnknownKey if the ring has never seen that key and
// ErrSignatureInvalid if the signature does not check out.
func (r *KeyRing) Verify(keyID string, msg []byte, sig [64]byte) error {
	r.mu.RLock()
	k, ok := r.keys[keyID]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownKey
	}
	if !k.Verify(msg, sig) {
		return ErrSignatureInvalid
	}
	return nil
}

// ValidAt returns the key that was active at the given time, the latest
// key whose ValidFrom is not after t. Used when verifying historical
// ledger entries signed under a now-rotated-away key.
func (r *KeyRing) ValidAt(t time.Time) (Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best Key
	found := false
	for _, k := range r.keys {
		if !k.ValidFrom.After(t) && (!found || k.ValidFrom.After(best.ValidFrom)) {
			best = k
			found = true
		}
	}
	return best, found
}
