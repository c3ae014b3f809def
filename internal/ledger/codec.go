package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// storedEntry is the at-rest representation of a model.LedgerEntry. It is
// not the hashed/signed form (that's canon.LedgerEntryBody) — this is
// just a convenient, round-trippable encoding for the underlying
// key-value store, so fixed-width hash/signature arrays travel as hex.
type storedEntry struct {
	TenantID     string    `json:"tenant_id"`
	Seq          uint64    `json:"seq"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    byte      `json:"event_type"`
	Payload      []byte    `json:"payload"`
	PreviousHash string    `json:"previous_hash"`
	EntryHash    string    `json:"entry_hash"`
	Signature    string    `json:"signature"`
}

type storedTail struct {
	Seq       uint64    `json:"seq"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeEntry(e model.LedgerEntry) ([]byte, error) {
	se := storedEntry{
		TenantID:     e.TenantID,
		Seq:          e.Seq,
		Timestamp:    e.Timestamp,
		EventType:    byte(e.EventType),
		Payload:      e.Payload,
		PreviousHash: hexEncode(e.PreviousHash[:]),
		EntryHash:    hexEncode(e.EntryHash[:]),
		Signature:    hexEncode(e.Signature[:]),
	}
	return json.Marshal(se)
}

func decodeEntry(b []byte) (model.LedgerEntry, error) {
	var se storedEntry
	if err := json.Unmarshal(b, &se); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: decode entry: %w", err)
	}
	var e model.LedgerEntry
	e.TenantID = se.TenantID
	e.Seq = se.Seq
	e.Timestamp = se.Timestamp
	e.EventType = model.EventType(se.EventType)
	e.Payload = se.Payload
	if err := hexDecodeInto(se.PreviousHash, e.PreviousHash[:]); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: decode previous_hash: %w", err)
	}
	if err := hexDecodeInto(se.EntryHash, e.EntryHash[:]); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: decode entry_hash: %w", err)
	}
	if err := hexDecodeInto(se.Signature, e.Signature[:]); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("ledger: decode signature: %w", err)
	}
	return e, nil
}

func encodeTail(t storedTail) ([]byte, error) {
	return json.Marshal(t)
}

func decodeTail(b []byte) (storedTail, error) {
	var t storedTail
	if err := json.Unmarshal(b, &t); err != nil {
		return storedTail{}, fmt.Errorf("ledger: decode tail: %w", err)
	}
	return t, nil
}
