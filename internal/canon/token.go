package canon

import "github.com/blackrose-blackhat/decisionguard/internal/model"

// CapabilityTokenBody encodes the fields of a CapabilityToken that its
// signature covers, spec.md §3 and §6:
//
//	request_digest | actor_id | action_id | optional(data_class) |
//	i64 issued_at_us | i64 expires_at_us | policy_version_hash
//
// TokenID and Signature are derived from this body, not part of it.
func CapabilityTokenBody(t model.CapabilityToken) ([]byte, error) {
	w := &Writer{}
	w.RawBytes(t.RequestDigest[:])
	w.String("capability_token.actor_id", t.ActorID)
	w.String("capability_token.action_id", t.ActionID)
	w.OptionalString("capability_token.data_class", t.HasDataClass, t.DataClass)
	w.I64(t.IssuedAt.UnixMicro())
	w.I64(t.ExpiresAt.UnixMicro())
	w.RawBytes(t.PolicyVersionHash[:])
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}
