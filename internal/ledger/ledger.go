// Package ledger implements the Ledger (C6): a per-tenant, hash-chained,
// Ed25519-signed append-only log over internal/store, following the
// single-writer append protocol of spec.md §4.6. Grounded on the pack's
// audit hash-chain (genesis hash, lastHash-under-mutex, prevHash||body
// digest) generalized from one global chain to
// independent per-tenant chains, and on the blockchain storage layer's
// Database abstraction for persistence.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/store"
)

// ErrBackpressure is returned when a tenant's append queue already has
// too many waiters (spec.md §5 backpressure).
var ErrBackpressure = fmt.Errorf("ledger: append backpressure, too many waiters")

// Ledger owns one hash chain per tenant. Appends are serialized per
// tenant via a dedicated mutex; reads and verification never take that
// lock and observe the store's own consistency.
type Ledger struct {
	db   store.Database
	ring *identity.KeyRing

	locksMu     sync.Mutex
	tenantLocks map[string]*tenantLock

	maxWaiters int
}

type tenantLock struct {
	mu      sync.Mutex
	waiting int
}

// New builds a Ledger over db, signing entries with ring. maxWaiters
// bounds the append queue per tenant before ErrBackpressure is returned;
// 0 means unbounded.
func New(db store.Database, ring *identity.KeyRing, maxWaiters int) *Ledger {
	return &Ledger{
		db:          db,
		ring:        ring,
		tenantLocks: make(map[string]*tenantLock),
		maxWaiters:  maxWaiters,
	}
}

func (l *Ledger) lockFor(tenant string) *tenantLock {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	tl, ok := l.tenantLocks[tenant]
	if !ok {
		tl = &tenantLock{}
		l.tenantLocks[tenant] = tl
	}
	return tl
}

// Append runs the spec.md §4.6 append protocol: acquire the per-tenant
// lock, read the tail, assign seq and a monotonic-clamped timestamp,
// compute and sign the entry hash, persist entry and tail atomically, and
// release. ctx cancellation before the lock is acquired yields
// context.Canceled/DeadlineExceeded; cancellation after the append has
// begun is not honored, since a partial chain must never be observed
// (spec.md §5).
func (l *Ledger) Append(ctx context.Context, tenant string, eventType model.EventType, payload []byte, callerTimestamp time.Time) (model.LedgerEntry, error) {
	tl := l.lockFor(tenant)

	if l.maxWaiters > 0 && tl.waiting >= l.maxWaiters {
		return model.LedgerEntry{}, ErrBackpressure
	}
	tl.waiting++
	defer func() { tl.waiting-- }()

	acquired := make(chan struct{})
	go func() { tl.mu.Lock(); close(acquired) }()
	select {
	case <-acquired:
	case <-ctx.Done():
		go func() { <-acquired; tl.mu.Unlock() }()
		return model.LedgerEntry{}, ctx.Err()
	}
	defer tl.mu.Unlock()

	tail, err := l.readTail(tenant)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: read tail: %w", err)
	}

	entry := model.LedgerEntry{
		TenantID:     tenant,
		Seq:          tail.Seq + 1,
		Timestamp:    monotonicClamp(callerTimestamp, tail.Timestamp),
		EventType:    eventType,
		Payload:      payload,
		PreviousHash: tail.Hash,
	}

	entryHash, err := canon.EntryHash(entry)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: compute entry hash: %w", err)
	}
	entry.EntryHash = entryHash

	_, sig := l.ring.Sign(entryHash[:])
	entry.Signature = sig

	encodedEntry, err := encodeEntry(entry)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: encode entry: %w", err)
	}
	encodedTail, err := encodeTail(storedTail{
		Seq:       entry.Seq,
		Hash:      hexEncode(entry.EntryHash[:]),
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: encode tail: %w", err)
	}

	if err := l.db.PutBatch(map[string][]byte{
		string(entryKey(tenant, entry.Seq)): encodedEntry,
		string(tailKey(tenant)):             encodedTail,
	}); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: durable write: %w", err)
	}

	return entry, nil
}

func monotonicClamp(caller, tail time.Time) time.Time {
	if caller.Before(tail) {
		return tail
	}
	return caller
}

type tailState struct {
	Seq       uint64
	Hash      [32]byte
	Timestamp time.Time
}

func (l *Ledger) readTail(tenant string) (tailState, error) {
	raw, err := l.db.Get(tailKey(tenant))
	if err == store.ErrNotFound {
		return tailState{Seq: 0, Hash: model.GenesisHash}, nil
	}
	if err != nil {
		return tailState{}, err
	}
	st, err := decodeTail(raw)
	if err != nil {
		return tailState{}, err
	}
	var hash [32]byte
	if err := hexDecodeInto(st.Hash, hash[:]); err != nil {
		return tailState{}, err
	}
	return tailState{Seq: st.Seq, Hash: hash, Timestamp: st.Timestamp}, nil
}

// GetBySeq returns the entry at seq for tenant.
func (l *Ledger) GetBySeq(tenant string, seq uint64) (model.LedgerEntry, error) {
	raw, err := l.db.Get(entryKey(tenant, seq))
	if err == store.ErrNotFound {
		return model.LedgerEntry{}, store.ErrNotFound
	}
	if err != nil {
		return model.LedgerEntry{}, err
	}
	return decodeEntry(raw)
}

// Range returns entries [from, to] for tenant, in ascending seq order,
// capped at limit entries (0 means unbounded). An entry whose stored
// value cannot be decoded is skipped rather than aborting the scan; use
// scan directly to also learn which seqs were skipped.
func (l *Ledger) Range(tenant string, from, to uint64, limit int) ([]model.LedgerEntry, error) {
	out, _, err := l.scan(tenant, from, to, limit)
	return out, err
}

// decodeFailure records a stored entry whose value could not be
// canonically decoded, keyed by the seq recovered from its storage key.
type decodeFailure struct {
	Seq uint64
}

// scan is Range's underlying iteration. A decode failure on one entry
// never short-circuits the scan: it is recorded against its seq (read
// back from the storage key, since the value itself is unreadable) and
// iteration continues, so Verify can report decode_error for that seq
// without abandoning the rest of the requested range.
func (l *Ledger) scan(tenant string, from, to uint64, limit int) ([]model.LedgerEntry, []decodeFailure, error) {
	var out []model.LedgerEntry
	var failures []decodeFailure
	err := l.db.Iterate(entryPrefix(tenant), func(key []byte, value []byte) error {
		e, err := decodeEntry(value)
		if err != nil {
			if seq, ok := parseEntrySeq(tenant, key); ok && seq >= from && (to == 0 || seq <= to) {
				failures = append(failures, decodeFailure{Seq: seq})
			}
			return nil
		}
		if e.Seq < from || (to > 0 && e.Seq > to) {
			return nil
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			return errStopIteration
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, nil, err
	}
	return out, failures, nil
}

var errStopIteration = fmt.Errorf("ledger: stop iteration")

// Tail returns the current tail sequence number and hash for tenant; seq
// 0 and the genesis hash if the chain is empty.
func (l *Ledger) Tail(tenant string) (seq uint64, hash [32]byte, err error) {
	t, err := l.readTail(tenant)
	if err != nil {
		return 0, [32]byte{}, err
	}
	return t.Seq, t.Hash, nil
}
