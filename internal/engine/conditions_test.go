package engine

import (
	"testing"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEvalTimeWindowWithinRange(t *testing.T) {
	c := model.Condition{Type: model.CondTimeWindow, StartMinute: 9 * 60, EndMinute: 17 * 60, TZ: "UTC"}
	req := model.DecisionRequest{WallClock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	require.True(t, evalTimeWindow(c, req))
}

func TestEvalTimeWindowOutsideRange(t *testing.T) {
	c := model.Condition{Type: model.CondTimeWindow, StartMinute: 9 * 60, EndMinute: 17 * 60, TZ: "UTC"}
	req := model.DecisionRequest{WallClock: time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)}
	require.False(t, evalTimeWindow(c, req))
}

func TestEvalContextEquals(t *testing.T) {
	c := model.Condition{Type: model.CondContextEquals, Field: "env", Value: "prod"}
	req := model.DecisionRequest{Context: map[string]model.ContextValue{"env": model.StringValue("prod")}}
	require.True(t, evalContextEquals(c, req))

	req2 := model.DecisionRequest{Context: map[string]model.ContextValue{"env": model.StringValue("staging")}}
	require.False(t, evalContextEquals(c, req2))
}

func TestEvalContextIn(t *testing.T) {
	c := model.Condition{Type: model.CondContextIn, Field: "region", ValueSet: []string{"us", "eu"}}
	req := model.DecisionRequest{Context: map[string]model.ContextValue{"region": model.StringValue("eu")}}
	require.True(t, evalContextIn(c, req))

	req2 := model.DecisionRequest{Context: map[string]model.ContextValue{"region": model.StringValue("apac")}}
	require.False(t, evalContextIn(c, req2))
}

func TestEvalDataSensitivityAtMost(t *testing.T) {
	p := model.Policy{Terms: []model.Term{
		{Kind: model.TermDataClass, ID: "pii", HasAttribute: true, Attribute: 4},
	}}
	c := model.Condition{Type: model.CondDataSensitivityAtMost, N: 3}
	req := model.DecisionRequest{HasDataClass: true, DataClass: "pii"}
	require.False(t, evalDataSensitivityAtMost(c, req, p))

	c2 := model.Condition{Type: model.CondDataSensitivityAtMost, N: 5}
	require.True(t, evalDataSensitivityAtMost(c2, req, p))
}

func TestEvalActorTrustAtLeast(t *testing.T) {
	p := model.Policy{Terms: []model.Term{
		{Kind: model.TermActor, ID: "alice", HasAttribute: true, Attribute: 2},
	}}
	c := model.Condition{Type: model.CondActorTrustAtLeast, N: 3}
	req := model.DecisionRequest{ActorID: "alice"}
	require.False(t, evalActorTrustAtLeast(c, req, p))

	c2 := model.Condition{Type: model.CondActorTrustAtLeast, N: 1}
	require.True(t, evalActorTrustAtLeast(c2, req, p))
}

func TestEvalRateLimit(t *testing.T) {
	counter := NewSlidingWindowCounter()
	deps := Deps{RateCounter: counter}
	c := model.Condition{Type: model.CondRateLimit, KeySelector: "actor_id", Max: 2, Window: time.Minute}
	req := model.DecisionRequest{ActorID: "a", WallClock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.True(t, evalRateLimit(c, req, deps))
	require.True(t, evalRateLimit(c, req, deps))
	require.False(t, evalRateLimit(c, req, deps))
}
