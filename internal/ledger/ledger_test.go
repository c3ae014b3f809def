package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*Ledger, *identity.KeyRing, store.Database) {
	t.Helper()
	key, err := identity.GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)
	ring := identity.NewKeyRing(key)
	db := store.NewMemDB()
	return New(db, ring, 0), ring, db
}

func TestAppendChainsHashes(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	e1, err := l.Append(ctx, "t1", model.EventDecision, []byte("payload-1"), now)
	require.NoError(t, err)
	require.Equal(t, uint64(1), e1.Seq)
	require.Equal(t, model.GenesisHash, e1.PreviousHash)

	e2, err := l.Append(ctx, "t1", model.EventDecision, []byte("payload-2"), now.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, uint64(2), e2.Seq)
	require.Equal(t, e1.EntryHash, e2.PreviousHash)
}

// P10 — timestamp monotonicity even under clock skew.
func TestAppendClampsTimestampMonotonic(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	e1, err := l.Append(ctx, "t1", model.EventDecision, []byte("p1"), t0)
	require.NoError(t, err)

	skewed := t0.Add(-time.Hour)
	e2, err := l.Append(ctx, "t1", model.EventDecision, []byte("p2"), skewed)
	require.NoError(t, err)
	require.True(t, !e2.Timestamp.Before(e1.Timestamp))
}

func TestTenantsHaveIndependentChains(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a, err := l.Append(ctx, "tenant-a", model.EventDecision, []byte("a"), now)
	require.NoError(t, err)
	b, err := l.Append(ctx, "tenant-b", model.EventDecision, []byte("b"), now)
	require.NoError(t, err)

	require.Equal(t, uint64(1), a.Seq)
	require.Equal(t, uint64(1), b.Seq)
	require.Equal(t, model.GenesisHash, a.PreviousHash)
	require.Equal(t, model.GenesisHash, b.PreviousHash)
}

// P2 + P3 — verify succeeds on an untampered chain.
func TestVerifyCleanChain(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, "t1", model.EventDecision, []byte{byte(i)}, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	result, err := l.Verify("t1", 1, 5)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Empty(t, result.Failures)
}

// S5 — tampering with entry #3's stored payload makes entry #3 fail
// verification (entry #4 still links to #3's stored entry_hash).
func TestVerifyDetectsTampering(t *testing.T) {
	l, _, db := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, "t1", model.EventDecision, []byte{byte(i)}, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	tampered, err := l.GetBySeq("t1", 3)
	require.NoError(t, err)
	tampered.Payload = []byte("tampered")
	encoded, err := encodeEntry(tampered)
	require.NoError(t, err)
	require.NoError(t, db.Put(entryKey("t1", 3), encoded))

	result, err := l.Verify("t1", 1, 5)
	require.NoError(t, err)
	require.False(t, result.OK)

	failedSeqs := map[uint64]bool{}
	for _, f := range result.Failures {
		failedSeqs[f.Seq] = true
	}
	require.True(t, failedSeqs[3])
}

// Corrupting one stored entry's value must not abort verification of
// the rest of the range: the bad seq is reported as decode_error and
// every other entry is still checked.
func TestVerifyReportsDecodeErrorWithoutAbortingScan(t *testing.T) {
	l, _, db := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, "t1", model.EventDecision, []byte{byte(i)}, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	require.NoError(t, db.Put(entryKey("t1", 3), []byte("not a canonical entry")))

	result, err := l.Verify("t1", 1, 5)
	require.NoError(t, err)
	require.False(t, result.OK)

	reasons := map[uint64]model.VerifyFailureReason{}
	for _, f := range result.Failures {
		reasons[f.Seq] = f.Reason
	}
	require.Equal(t, model.FailureDecodeError, reasons[3])

	entries, err := l.Range("t1", 1, 5, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4, "the corrupted entry is skipped, not returned, but its neighbors still are")
}

func TestGetBySeqMissing(t *testing.T) {
	l, _, _ := newTestLedger(t)
	_, err := l.GetBySeq("t1", 99)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRangeRespectsLimit(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, "t1", model.EventDecision, []byte{byte(i)}, now)
		require.NoError(t, err)
	}
	entries, err := l.Range("t1", 1, 5, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestConcurrentAppendsProduceContiguousChain(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	const n = 20
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := l.Append(ctx, "t1", model.EventDecision, []byte{byte(i)}, now)
			require.NoError(t, err)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	seq, _, err := l.Tail("t1")
	require.NoError(t, err)
	require.Equal(t, uint64(n), seq)

	result, err := l.Verify("t1", 1, n)
	require.NoError(t, err)
	require.True(t, result.OK)
}

func TestAppendBackpressure(t *testing.T) {
	key, err := identity.GenerateKey(time.Unix(0, 0))
	require.NoError(t, err)
	ring := identity.NewKeyRing(key)
	db := store.NewMemDB()
	l := New(db, ring, 1)

	tl := l.lockFor("t1")
	tl.mu.Lock()
	tl.waiting = 1
	defer tl.mu.Unlock()

	_, err = l.Append(context.Background(), "t1", model.EventDecision, []byte("x"), time.Now())
	require.ErrorIs(t, err, ErrBackpressure)
}
