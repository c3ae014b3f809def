package engine

import (
	"testing"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/stretchr/testify/require"
)

func basePolicy(mode model.Mode) model.Policy {
	return model.Policy{
		PolicyID: "p",
		Mode:     mode,
		Terms: []model.Term{
			{Kind: model.TermAction, ID: "search_web", HasAttribute: true, Attribute: 1},
			{Kind: model.TermActor, ID: "model", HasAttribute: true, Attribute: 1},
		},
		EscalationThreshold: 4,
	}
}

func baseRequest(action string) model.DecisionRequest {
	return model.DecisionRequest{
		TenantID:  "t1",
		ActorID:   "model",
		ActionID:  action,
		RequestID: "r1",
		WallClock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Context:   map[string]model.ContextValue{},
	}
}

func noDeps() Deps { return Deps{RateCounter: NewSlidingWindowCounter(), Approvals: NoApprovals{}} }

// S1 — simple allow.
func TestSimpleAllow(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Allow, out.Verdict)
}

// S2 — forbid wins over permit.
func TestForbidWinsOverPermit(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
		{ID: "r2", Variant: model.RelationForbids, Actor: "model", Action: "search_web", Reason: "maintenance"},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Deny, out.Verdict)
	found := false
	for _, step := range out.ReasonTrace {
		if step.Message == "maintenance" {
			found = true
		}
	}
	require.True(t, found)
}

// S3 — requires with escalate_on_fail, unmet, no approval given.
func TestRequiresEscalateOnFail(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
		{ID: "r2", Variant: model.RelationRequires, Action: "search_web", Conditions: []model.Condition{
			{Type: model.CondApprovalPresent, ApproverRole: "admin", EscalateOnFail: true},
		}},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Escalate, out.Verdict)
}

// S4 — implies meet: compose_email permitted, send_email forbidden.
func TestImpliesMeet(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Terms = append(p.Terms,
		model.Term{Kind: model.TermAction, ID: "compose_email"},
		model.Term{Kind: model.TermAction, ID: "send_email"},
	)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "compose_email"},
		{ID: "r2", Variant: model.RelationForbids, Actor: "model", Action: "send_email", Reason: "no sending"},
		{ID: "r3", Variant: model.RelationImplies, Action: "compose_email", ImpliedAction: "send_email"},
	}
	out := Evaluate(p, baseRequest("compose_email"), noDeps())
	require.Equal(t, model.Deny, out.Verdict)
}

// P5 — forbid always wins regardless of number of matching permits.
func TestForbidWinsOverMultiplePermits(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "p1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
		{ID: "p2", Variant: model.RelationPermits, Actor: "*", Action: "search_web"},
		{ID: "f1", Variant: model.RelationForbids, Actor: "*", Action: "search_web", Reason: "blocked"},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Deny, out.Verdict)
}

// P6 — strict mode, empty permits, non-forbidden action denies.
func TestStrictDefaultDeny(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Deny, out.Verdict)
}

// P7 — permissive mode, empty permits and forbids allows.
func TestPermissiveDefaultAllow(t *testing.T) {
	p := basePolicy(model.ModePermissive)
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Allow, out.Verdict)
}

// P4 — determinism: identical inputs produce identical verdict and trace shape.
func TestEvaluateIsDeterministic(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
	}
	req := baseRequest("search_web")
	out1 := Evaluate(p, req, noDeps())
	out2 := Evaluate(p, req, noDeps())
	require.Equal(t, out1.Verdict, out2.Verdict)
	require.Equal(t, out1.ReasonTrace, out2.ReasonTrace)
}

func TestRiskEscalation(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.EscalationThreshold = 3
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
	}
	req := baseRequest("search_web")
	req.HasRiskLevel = true
	req.RiskLevel = 5
	out := Evaluate(p, req, noDeps())
	require.Equal(t, model.Escalate, out.Verdict)
}

func TestUnknownConditionTypeFailsClosed(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web", Conditions: []model.Condition{
			{Type: "not_a_real_type"},
		}},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Deny, out.Verdict)

	degraded := false
	for _, step := range out.ReasonTrace {
		if step.Role == model.RoleDegradedPolicy {
			degraded = true
		}
	}
	require.True(t, degraded)
}

func TestWildcardActorMatches(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "*", Action: "search_web"},
	}
	out := Evaluate(p, baseRequest("search_web"), noDeps())
	require.Equal(t, model.Allow, out.Verdict)
}

func TestDataClassAbsentMatchesAnyClass(t *testing.T) {
	p := basePolicy(model.ModeStrict)
	p.Relations = []model.Relation{
		{ID: "r1", Variant: model.RelationPermits, Actor: "model", Action: "search_web"},
	}
	req := baseRequest("search_web")
	req.HasDataClass = true
	req.DataClass = "pii"
	out := Evaluate(p, req, noDeps())
	require.Equal(t, model.Allow, out.Verdict)
}
