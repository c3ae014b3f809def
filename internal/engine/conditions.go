package engine

import (
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Deps are the injected, non-deterministic-looking but actually-pure-per-call
// dependencies the engine consults for conditions it cannot evaluate from
// the request alone (spec.md §4.3): a rate counter and an approval
// verifier. Both are treated as inputs, not hidden state, preserving I6.
type Deps struct {
	RateCounter RateCounter
	Approvals   ApprovalVerifier
}

// conditionResult carries whether a condition held and, if not and the
// evaluator could not even classify the condition, whether the failure is
// a "degraded policy" case (unknown condition type) rather than an
// ordinary unmet condition.
type conditionResult struct {
	ok       bool
	degraded bool
}

func evaluateCondition(c model.Condition, req model.DecisionRequest, p model.Policy, deps Deps) conditionResult {
	switch c.Type {
	case model.CondTimeWindow:
		return conditionResult{ok: evalTimeWindow(c, req)}
	case model.CondRateLimit:
		return conditionResult{ok: evalRateLimit(c, req, deps)}
	case model.CondApprovalPresent:
		return conditionResult{ok: evalApprovalPresent(c, req, deps)}
	case model.CondContextEquals:
		return conditionResult{ok: evalContextEquals(c, req)}
	case model.CondContextIn:
		return conditionResult{ok: evalContextIn(c, req)}
	case model.CondDataSensitivityAtMost:
		return conditionResult{ok: evalDataSensitivityAtMost(c, req, p)}
	case model.CondActorTrustAtLeast:
		return conditionResult{ok: evalActorTrustAtLeast(c, req, p)}
	default:
		return conditionResult{ok: false, degraded: true}
	}
}

func evalTimeWindow(c model.Condition, req model.DecisionRequest) bool {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		loc = time.UTC
	}
	t := req.WallClock.In(loc)
	if len(c.DaysOfWeek) > 0 && !weekdayIn(t.Weekday(), c.DaysOfWeek) {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if c.StartMinute <= c.EndMinute {
		return minute >= c.StartMinute && minute <= c.EndMinute
	}
	// A window that wraps past midnight, e.g. start=1380 end=120.
	return minute >= c.StartMinute || minute <= c.EndMinute
}

func weekdayIn(d time.Weekday, days []time.Weekday) bool {
	for _, w := range days {
		if w == d {
			return true
		}
	}
	return false
}

func evalRateLimit(c model.Condition, req model.DecisionRequest, deps Deps) bool {
	if deps.RateCounter == nil {
		return false
	}
	key := rateLimitKey(c.KeySelector, req)
	count := deps.RateCounter.Observe(key, req.WallClock, c.Window)
	return count <= c.Max
}

func rateLimitKey(selector string, req model.DecisionRequest) string {
	switch selector {
	case "actor_id":
		return req.ActorID
	case "action_id":
		return req.ActionID
	case "tenant_id":
		return req.TenantID
	default:
		if v, ok := req.Context[selector]; ok {
			return v.AsString()
		}
		return selector
	}
}

func evalApprovalPresent(c model.Condition, req model.DecisionRequest, deps Deps) bool {
	approval, ok := extractApproval(req.Context)
	if !ok || approval.Role != c.ApproverRole {
		return false
	}
	if deps.Approvals == nil {
		return false
	}
	digest, err := canon.RequestDigest(req)
	if err != nil {
		return false
	}
	return deps.Approvals.Verify(digest, approval)
}

func evalContextEquals(c model.Condition, req model.DecisionRequest) bool {
	v, ok := req.Context[c.Field]
	if !ok {
		return false
	}
	return v.AsString() == c.Value
}

func evalContextIn(c model.Condition, req model.DecisionRequest) bool {
	v, ok := req.Context[c.Field]
	if !ok {
		return false
	}
	s := v.AsString()
	for _, candidate := range c.ValueSet {
		if s == candidate {
			return true
		}
	}
	return false
}

func evalDataSensitivityAtMost(c model.Condition, req model.DecisionRequest, p model.Policy) bool {
	if !req.HasDataClass {
		return true
	}
	term, ok := p.TermByID(model.TermDataClass, req.DataClass)
	if !ok || !term.HasAttribute {
		return false
	}
	return term.Attribute <= c.N
}

func evalActorTrustAtLeast(c model.Condition, req model.DecisionRequest, p model.Policy) bool {
	term, ok := p.TermByID(model.TermActor, req.ActorID)
	if !ok || !term.HasAttribute {
		return false
	}
	return term.Attribute >= c.N
}
