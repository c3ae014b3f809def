package canon

import (
	"sort"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Policy encodes a Policy for version-hash computation, spec.md §4.4: two
// policy documents that differ in any semantically meaningful way must
// produce different hashes, and documents that differ only in
// presentation (key order in the source YAML, for instance) must not.
// Terms are sorted by (kind, id) and relations by id before encoding so
// the hash depends only on content, never on document order.
//
//	policy_id | u8 mode | u32_be term_count | terms... |
//	u32_be relation_count | relations... | i64 default_token_ttl_us |
//	u32_be escalation_threshold
func Policy(p model.Policy) ([]byte, error) {
	w := &Writer{}
	w.String("policy.policy_id", p.PolicyID)
	w.U8(modeTag(p.Mode))

	terms := append([]model.Term(nil), p.Terms...)
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Kind != terms[j].Kind {
			return terms[i].Kind < terms[j].Kind
		}
		return terms[i].ID < terms[j].ID
	})
	w.U32(uint32(len(terms)))
	for _, t := range terms {
		term(w, t)
	}

	relations := append([]model.Relation(nil), p.Relations...)
	sort.Slice(relations, func(i, j int) bool { return relations[i].ID < relations[j].ID })
	w.U32(uint32(len(relations)))
	for _, r := range relations {
		relation(w, r)
	}

	w.I64(int64(p.DefaultTokenTTL / time.Microsecond))
	w.U32(uint32(p.EffectiveEscalationThreshold()))

	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}

// PolicyVersionHash returns H(canonical_encode(policy)), the Policy's
// cryptographic identity (spec.md §9, Open Question 2).
func PolicyVersionHash(p model.Policy) ([32]byte, error) {
	b, err := Policy(p)
	if err != nil {
		return [32]byte{}, err
	}
	return Hash(b), nil
}

func modeTag(m model.Mode) byte {
	if m == model.ModePermissive {
		return 1
	}
	return 0
}

func term(w *Writer, t model.Term) {
	w.String("term.kind", string(t.Kind))
	w.String("term.id", t.ID)
	w.OptionalU8(t.HasAttribute, byte(t.Attribute))
}

func relation(w *Writer, r model.Relation) {
	w.String("relation.id", r.ID)
	w.String("relation.variant", string(r.Variant))
	w.String("relation.actor", r.Actor)
	w.String("relation.action", r.Action)
	w.String("relation.data_class", r.DataClass)
	w.String("relation.implied_action", r.ImpliedAction)
	w.String("relation.reason", r.Reason)
	w.U32(uint32(len(r.Conditions)))
	for _, c := range r.Conditions {
		condition(w, c)
	}
}

func condition(w *Writer, c model.Condition) {
	w.String("condition.type", string(c.Type))
	w.Bool(c.EscalateOnFail)
	w.I64(int64(c.StartMinute))
	w.I64(int64(c.EndMinute))
	w.String("condition.tz", c.TZ)
	w.U32(uint32(len(c.DaysOfWeek)))
	for _, d := range c.DaysOfWeek {
		w.U8(byte(d))
	}
	w.String("condition.key_selector", c.KeySelector)
	w.I64(int64(c.Max))
	w.I64(int64(c.Window / time.Microsecond))
	w.String("condition.approver_role", c.ApproverRole)
	w.String("condition.field", c.Field)
	w.String("condition.value", c.Value)
	values := append([]string(nil), c.ValueSet...)
	sort.Strings(values)
	w.U32(uint32(len(values)))
	for _, v := range values {
		w.String("condition.value_set.item", v)
	}
	w.I64(int64(c.N))
}
