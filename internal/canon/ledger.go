package canon

import "github.com/blackrose-blackhat/decisionguard/internal/model"

// DecisionPayload encodes a DecisionPayload per spec.md §4.5 step 6:
//
//	decision_id | request_digest | u8 verdict | reason_trace_digest |
//	policy_version_hash | optional(token_id) | i64 issued_at_us |
//	optional(i64 expires_at_us)
func DecisionPayload(p model.DecisionPayload) ([]byte, error) {
	w := &Writer{}
	w.String("decision_payload.decision_id", p.DecisionID)
	w.RawBytes(p.RequestDigest[:])
	w.U8(verdictTag(p.Verdict))
	w.RawBytes(p.ReasonTraceDigest[:])
	w.RawBytes(p.PolicyVersionHash[:])
	w.OptionalString("decision_payload.token_id", p.HasToken, p.TokenID)
	w.I64(p.IssuedAt.UnixMicro())
	w.OptionalTag(p.HasExpiry)
	if p.HasExpiry {
		w.I64(p.ExpiresAt.UnixMicro())
	}
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// verdictTag maps a Verdict to its one-byte wire tag: 0 allow,
// 1 escalate, 2 deny, 0xff for any other value.
func verdictTag(v model.Verdict) byte {
	switch v {
	case model.Allow:
		return 0
	case model.Escalate:
		return 1
	case model.Deny:
		return 2
	default:
		return 0xff
	}
}

// PolicyLoadedPayload encodes a PolicyLoadedPayload per spec.md §4.4:
//
//	policy_id | version_hash | optional(previous_version_hash)
func PolicyLoadedPayload(p model.PolicyLoadedPayload) ([]byte, error) {
	w := &Writer{}
	w.String("policy_loaded_payload.policy_id", p.PolicyID)
	w.RawBytes(p.VersionHash[:])
	w.OptionalTag(p.HasPrevious)
	if p.HasPrevious {
		w.RawBytes(p.PreviousVersionHash[:])
	}
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// LedgerEntryBody encodes the body of a LedgerEntry that the entry_hash is
// computed over, spec.md §6:
//
//	u64_be seq | i64_be timestamp_us | u8 event_type | tenant_id |
//	u32_be payload_length | payload_bytes
//
// payload is the already-canon-encoded DecisionPayload or
// PolicyLoadedPayload; the caller produces it with DecisionPayload or
// PolicyLoadedPayload above.
func LedgerEntryBody(e model.LedgerEntry) ([]byte, error) {
	w := &Writer{}
	w.U64(e.Seq)
	w.I64(e.Timestamp.UnixMicro())
	w.U8(byte(e.EventType))
	w.String("ledger_entry.tenant_id", e.TenantID)
	w.U32(uint32(len(e.Payload)))
	w.RawBytes(e.Payload)
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// EntryHash computes entry_hash = SHA256(previous_hash ‖ canonical_body)
// for a LedgerEntry whose Payload is already set, spec.md §4.6 invariant I1.
func EntryHash(e model.LedgerEntry) ([32]byte, error) {
	body, err := LedgerEntryBody(e)
	if err != nil {
		return [32]byte{}, err
	}
	return HashPrefixed(e.PreviousHash, body), nil
}
