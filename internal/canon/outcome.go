package canon

import "github.com/blackrose-blackhat/decisionguard/internal/model"

// ReasonTrace encodes a reason trace as u32_be count followed by each
// ReasonStep's (rule_id, role, message) strings in order. Order is
// significant and preserved as given (the engine is responsible for
// producing a deterministic order, e.g. ascending rule id).
func ReasonTrace(steps []model.ReasonStep) ([]byte, error) {
	w := &Writer{}
	w.U32(uint32(len(steps)))
	for _, s := range steps {
		w.String("reason_step.rule_id", s.RuleID)
		w.String("reason_step.role", string(s.Role))
		w.String("reason_step.message", s.Message)
	}
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// ReasonTraceDigest returns H(canonical_encode(reason_trace)), the digest
// carried in a ledger decision payload in place of the full trace
// (spec.md §4.5 step 6).
func ReasonTraceDigest(steps []model.ReasonStep) ([32]byte, error) {
	b, err := ReasonTrace(steps)
	if err != nil {
		return [32]byte{}, err
	}
	return Hash(b), nil
}
