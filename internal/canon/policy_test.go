package canon

import (
	"testing"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/stretchr/testify/require"
)

func samplePolicy() model.Policy {
	return model.Policy{
		PolicyID: "p1",
		Mode:     model.ModeStrict,
		Terms: []model.Term{
			{Kind: model.TermActor, ID: "alice"},
			{Kind: model.TermAction, ID: "read", HasAttribute: true, Attribute: 2},
		},
		Relations: []model.Relation{
			{ID: "r1", Variant: model.RelationPermits, Actor: "*", Action: "read"},
		},
		DefaultTokenTTL:     5 * time.Minute,
		EscalationThreshold: 3,
	}
}

func TestPolicyHashStableUnderDocumentReorder(t *testing.T) {
	p1 := samplePolicy()
	p2 := samplePolicy()
	p2.Terms[0], p2.Terms[1] = p2.Terms[1], p2.Terms[0]

	h1, err := PolicyVersionHash(p1)
	require.NoError(t, err)
	h2, err := PolicyVersionHash(p2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestPolicyHashChangesOnSemanticChange(t *testing.T) {
	p1 := samplePolicy()
	p2 := samplePolicy()
	p2.Relations[0].Action = "write"

	h1, err := PolicyVersionHash(p1)
	require.NoError(t, err)
	h2, err := PolicyVersionHash(p2)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestPolicyHashIgnoresCedarRendering(t *testing.T) {
	p1 := samplePolicy()
	p2 := samplePolicy()
	p2.CedarRendering = "permit(principal, action, resource);"

	h1, err := PolicyVersionHash(p1)
	require.NoError(t, err)
	h2, err := PolicyVersionHash(p2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
