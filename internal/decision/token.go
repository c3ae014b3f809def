package decision

import (
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// mintToken builds and signs a CapabilityToken bound to requestDigest and
// the policy version used for this decision, spec.md §4.5 step 5.
func mintToken(ring *identity.KeyRing, req model.DecisionRequest, requestDigest [32]byte, p model.Policy, issuedAt time.Time, requestedTTL time.Duration) (model.CapabilityToken, error) {
	ttl := p.DefaultTokenTTL
	if requestedTTL > 0 && requestedTTL < ttl {
		ttl = requestedTTL
	}
	if ttl > model.MaxTokenTTL {
		ttl = model.MaxTokenTTL
	}

	t := model.CapabilityToken{
		RequestDigest:     requestDigest,
		ActorID:           req.ActorID,
		ActionID:          req.ActionID,
		DataClass:         req.DataClass,
		HasDataClass:      req.HasDataClass,
		IssuedAt:          issuedAt,
		ExpiresAt:         issuedAt.Add(ttl),
		PolicyVersionHash: p.VersionHash,
	}

	body, err := canon.CapabilityTokenBody(t)
	if err != nil {
		return model.CapabilityToken{}, err
	}
	bodyHash := canon.Hash(body)
	t.TokenID = hexPrefix16(bodyHash)

	_, sig := ring.Sign(body)
	t.Signature = sig

	return t, nil
}

func hexPrefix16(h [32]byte) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 32)
	for i, b := range h[:16] {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// verifyToken checks a CapabilityToken's signature and expiry, the
// engine-side half of the Verify wire operation (spec.md §6). It does not
// check policy identity and does not return the bound hash; whether
// t.PolicyVersionHash is still the active policy is left to the caller.
func verifyToken(ring *identity.KeyRing, t model.CapabilityToken, now time.Time) (valid bool, reason string) {
	body, err := canon.CapabilityTokenBody(t)
	if err != nil {
		return false, "malformed token body"
	}
	key, ok := ring.ValidAt(t.IssuedAt)
	if !ok {
		return false, "no signing key valid at issuance"
	}
	if !key.Verify(body, t.Signature) {
		return false, "signature invalid"
	}
	if now.After(t.ExpiresAt) {
		return false, "token expired"
	}
	return true, ""
}
