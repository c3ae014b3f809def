package canon

import "github.com/blackrose-blackhat/decisionguard/internal/model"

// DecisionRequest encodes r per spec.md §6:
//
//	tenant_id | actor_id | action_id | optional(resource_id) |
//	optional(data_class) | sorted_map(context_map) |
//	optional(u8 risk_level) | i64 wall_clock_time_us | request_id
func DecisionRequest(r model.DecisionRequest) ([]byte, error) {
	w := &Writer{}
	w.String("tenant_id", r.TenantID)
	w.String("actor_id", r.ActorID)
	w.String("action_id", r.ActionID)
	w.OptionalString("resource_id", r.HasResource, r.ResourceID)
	w.OptionalString("data_class", r.HasDataClass, r.DataClass)
	w.ContextMap(r.Context)
	w.OptionalU8(r.HasRiskLevel, byte(r.RiskLevel))
	w.I64(r.WallClock.UnixMicro())
	w.String("request_id", r.RequestID)
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// RequestDigest returns H(canonical_encode(request)), the request digest
// used for idempotency and token binding (spec.md §3).
func RequestDigest(r model.DecisionRequest) ([32]byte, error) {
	b, err := DecisionRequest(r)
	if err != nil {
		return [32]byte{}, err
	}
	return Hash(b), nil
}
