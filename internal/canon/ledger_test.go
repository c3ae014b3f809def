package canon

import (
	"testing"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEntryHashChains(t *testing.T) {
	payload, err := DecisionPayload(model.DecisionPayload{
		DecisionID:    "d1",
		RequestDigest: [32]byte{1},
		Verdict:       model.Allow,
		IssuedAt:      time.UnixMicro(1000),
	})
	require.NoError(t, err)

	e0 := model.LedgerEntry{
		TenantID:     "t1",
		Seq:          1,
		Timestamp:    time.UnixMicro(1000),
		EventType:    model.EventDecision,
		Payload:      payload,
		PreviousHash: model.GenesisHash,
	}
	h0, err := EntryHash(e0)
	require.NoError(t, err)
	require.NotEqual(t, model.GenesisHash, h0)

	e1 := e0
	e1.Seq = 2
	e1.PreviousHash = h0
	h1, err := EntryHash(e1)
	require.NoError(t, err)
	require.NotEqual(t, h0, h1)

	// Same previous hash, different seq changes the entry hash.
	e2 := e0
	e2.Seq = 3
	h2, err := EntryHash(e2)
	require.NoError(t, err)
	require.NotEqual(t, h0, h2)
}

func TestPolicyLoadedPayloadOptionalPrevious(t *testing.T) {
	b1, err := PolicyLoadedPayload(model.PolicyLoadedPayload{PolicyID: "p", VersionHash: [32]byte{9}})
	require.NoError(t, err)
	b2, err := PolicyLoadedPayload(model.PolicyLoadedPayload{
		PolicyID:            "p",
		VersionHash:         [32]byte{9},
		HasPrevious:         true,
		PreviousVersionHash: [32]byte{1},
	})
	require.NoError(t, err)
	require.NotEqual(t, b1, b2)
}
