package canon

import "crypto/sha256"

// Hash returns SHA-256(b). The engine and ledger never use any other
// digest; this is the single point where that choice is made.
func Hash(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// HashPrefixed returns SHA-256(prefix ‖ b), the shape spec.md §6 uses for
// entry_hash = SHA-256(previous_hash ‖ body_bytes).
func HashPrefixed(prefix [32]byte, b []byte) [32]byte {
	h := sha256.New()
	h.Write(prefix[:])
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
