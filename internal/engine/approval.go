package engine

import (
	"encoding/hex"

	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Approval is the material an approval_present condition checks: a role,
// the key that signed off on it, and a signature over the request digest.
// The engine never verifies signatures itself (I6, determinism is about
// evaluation logic, not cryptography) — it delegates to an
// ApprovalVerifier, as spec.md §4.3 requires.
type Approval struct {
	Role      string
	KeyID     string
	Signature [64]byte
}

const (
	contextKeyApprovalRole      = "approval_role"
	contextKeyApprovalKeyID     = "approval_key_id"
	contextKeyApprovalSignature = "approval_signature_hex"
)

// extractApproval reads an Approval out of a request's context_map, if
// present and well-formed.
func extractApproval(ctx map[string]model.ContextValue) (Approval, bool) {
	role, ok := ctx[contextKeyApprovalRole]
	if !ok || role.Kind != model.ScalarString {
		return Approval{}, false
	}
	keyID, ok := ctx[contextKeyApprovalKeyID]
	if !ok || keyID.Kind != model.ScalarString {
		return Approval{}, false
	}
	sigHex, ok := ctx[contextKeyApprovalSignature]
	if !ok || sigHex.Kind != model.ScalarString {
		return Approval{}, false
	}
	raw, err := hex.DecodeString(sigHex.Str)
	if err != nil || len(raw) != 64 {
		return Approval{}, false
	}
	var sig [64]byte
	copy(sig[:], raw)
	return Approval{Role: role.Str, KeyID: keyID.Str, Signature: sig}, true
}

// ApprovalVerifier checks whether an Approval's signature is valid over a
// request digest.
type ApprovalVerifier interface {
	Verify(requestDigest [32]byte, approval Approval) bool
}

// KeyRingApprovalVerifier verifies approvals against a KeyRing of trusted
// approver keys, the production wiring for ApprovalVerifier.
type KeyRingApprovalVerifier struct {
	Ring *identity.KeyRing
}

// Verify reports whether approval.Signature is a valid signature over
// requestDigest under approval.KeyID.
func (v KeyRingApprovalVerifier) Verify(requestDigest [32]byte, approval Approval) bool {
	if v.Ring == nil {
		return false
	}
	return v.Ring.Verify(approval.KeyID, requestDigest[:], approval.Signature) == nil
}

// NoApprovals always reports no approval present; used where approval
// workflows are not wired (e.g. pure engine unit tests).
type NoApprovals struct{}

func (NoApprovals) Verify(_ [32]byte, _ Approval) bool { return false }
