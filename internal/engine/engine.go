// Package engine implements the Policy Engine (C5): a pure function from
// (Policy, DecisionRequest) to EvaluationOutcome. Nothing here reads a
// clock, calls an RNG, or performs I/O — every time-dependent condition
// reads the wall-clock value already carried on the request, and the only
// external consultation (rate counting, approval verification) happens
// through the injected Deps, so a call is reproducible given the same
// inputs.
package engine

import (
	"sort"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Evaluate runs the full decision procedure: pattern matching, forbid
// pass, permit pass, requires pass, default mode, single-level implies
// expansion, and risk escalation, in that order.
func Evaluate(p model.Policy, req model.DecisionRequest, deps Deps) model.EvaluationOutcome {
	out := model.EvaluationOutcome{EvaluatedAt: req.WallClock}

	base := evaluateCore(p, req, deps)
	out.Verdict = base.verdict
	out.ReasonTrace = append(out.ReasonTrace, base.trace...)
	for id := range base.matched {
		out.AddMatch(id)
	}

	for _, r := range sortedRelations(p, model.RelationImplies) {
		if !r.MatchesAction(req.ActionID) {
			continue
		}
		synthetic := req.WithAction(r.ImpliedAction)
		implied := evaluateCore(p, synthetic, deps)

		out.ReasonTrace = append(out.ReasonTrace, model.ReasonStep{
			RuleID:  r.ID,
			Role:    model.RoleImpliedBy,
			Message: "implied action " + r.ImpliedAction + " evaluated to " + string(implied.verdict),
		})
		out.ReasonTrace = append(out.ReasonTrace, implied.trace...)
		for id := range implied.matched {
			out.AddMatch(id)
		}

		out.Verdict = model.Meet(out.Verdict, implied.verdict)
	}

	if out.Verdict == model.Allow && req.HasRiskLevel && req.RiskLevel >= p.EffectiveEscalationThreshold() {
		out.Verdict = model.Escalate
		out.ReasonTrace = append(out.ReasonTrace, model.ReasonStep{
			Role:    model.RoleEscalationTrigger,
			Message: "risk_level meets or exceeds escalation_threshold",
		})
	}

	return out
}

// coreResult is the outcome of steps 2–6 for a single (policy, request)
// pair: forbid pass, permit pass, requires pass, default mode. Implies
// expansion and risk escalation live one level up, in Evaluate, since
// implication is explicitly single-level (spec.md §4.3 step 5).
type coreResult struct {
	verdict model.Verdict
	trace   []model.ReasonStep
	matched map[string]struct{}
}

func evaluateCore(p model.Policy, req model.DecisionRequest, deps Deps) coreResult {
	res := coreResult{matched: map[string]struct{}{}}

	forbids := matchingRelations(p, model.RelationForbids, req)
	if len(forbids) > 0 {
		res.verdict = model.Deny
		for _, r := range forbids {
			res.matched[r.ID] = struct{}{}
			res.trace = append(res.trace, model.ReasonStep{
				RuleID:  r.ID,
				Role:    model.RoleForbid,
				Message: r.Reason,
			})
		}
		return res
	}

	permitSatisfied := false
	for _, r := range matchingRelations(p, model.RelationPermits, req) {
		ok, degradedSteps := allConditionsHold(r.Conditions, req, p, deps)
		res.trace = append(res.trace, degradedSteps...)
		if ok {
			permitSatisfied = true
			res.matched[r.ID] = struct{}{}
			res.trace = append(res.trace, model.ReasonStep{RuleID: r.ID, Role: model.RolePermit})
		}
	}

	var requiresVerdict model.Verdict
	for _, r := range sortedRelations(p, model.RelationRequires) {
		if !r.MatchesAction(req.ActionID) {
			continue
		}
		for _, c := range r.Conditions {
			cr := evaluateCondition(c, req, p, deps)
			if cr.degraded {
				res.trace = append(res.trace, model.ReasonStep{
					RuleID:  r.ID,
					Role:    model.RoleDegradedPolicy,
					Message: "unknown condition type " + string(c.Type),
				})
				cr.ok = false
			}
			if cr.ok {
				continue
			}
			res.matched[r.ID] = struct{}{}
			unmet := model.Deny
			if c.EscalateOnFail {
				unmet = model.Escalate
			}
			if requiresVerdict == "" {
				requiresVerdict = unmet
			} else {
				requiresVerdict = model.Meet(requiresVerdict, unmet)
			}
			res.trace = append(res.trace, model.ReasonStep{
				RuleID:  r.ID,
				Role:    model.RoleRequiredUnmet,
				Message: "required condition unmet: " + string(c.Type),
			})
		}
	}

	switch {
	case requiresVerdict != "":
		res.verdict = requiresVerdict
	case permitSatisfied:
		res.verdict = model.Allow
	case p.Mode == model.ModePermissive:
		res.verdict = model.Allow
		res.trace = append(res.trace, model.ReasonStep{Role: model.RoleDefault, Message: "permissive default"})
	default:
		res.verdict = model.Deny
		res.trace = append(res.trace, model.ReasonStep{Role: model.RoleDefault, Message: "strict default"})
	}

	return res
}

func allConditionsHold(conds []model.Condition, req model.DecisionRequest, p model.Policy, deps Deps) (bool, []model.ReasonStep) {
	var degraded []model.ReasonStep
	for _, c := range conds {
		cr := evaluateCondition(c, req, p, deps)
		if cr.degraded {
			degraded = append(degraded, model.ReasonStep{
				Role:    model.RoleDegradedPolicy,
				Message: "unknown condition type " + string(c.Type),
			})
			return false, degraded
		}
		if !cr.ok {
			return false, degraded
		}
	}
	return true, degraded
}

func matchingRelations(p model.Policy, variant model.RelationVariant, req model.DecisionRequest) []model.Relation {
	var out []model.Relation
	for _, r := range p.Relations {
		if r.Variant != variant {
			continue
		}
		if !r.MatchesActor(req.ActorID) || !r.MatchesAction(req.ActionID) {
			continue
		}
		if req.HasDataClass {
			if !r.MatchesDataClass(req.DataClass) {
				continue
			}
		} else if r.DataClass != "" && r.DataClass != model.Wildcard {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedRelations(p model.Policy, variant model.RelationVariant) []model.Relation {
	var out []model.Relation
	for _, r := range p.Relations {
		if r.Variant == variant {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
