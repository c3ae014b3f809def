package model

import "time"

// EventType enumerates the kinds of events the Ledger records.
type EventType byte

const (
	EventDecision EventType = iota + 1
	EventPolicyLoaded
)

// GenesisHash is the previous_hash of the first entry in a tenant's chain.
var GenesisHash = [32]byte{}

// LedgerEntry is an immutable, numbered record in a tenant's hash chain,
// spec.md §3 and §6.
type LedgerEntry struct {
	TenantID  string
	Seq       uint64
	Timestamp time.Time
	EventType EventType

	// Payload is the canonical encoding of the event-specific body (a
	// DecisionPayload or PolicyLoadedPayload, canon-encoded by the
	// caller before Append).
	Payload []byte

	PreviousHash [32]byte
	EntryHash    [32]byte
	Signature    [64]byte
}

// DecisionPayload is the canonical ledger payload for an EventDecision
// entry, spec.md §4.5 step 6.
type DecisionPayload struct {
	TenantID          string
	DecisionID        string
	RequestDigest     [32]byte
	Verdict           Verdict
	ReasonTraceDigest [32]byte
	PolicyVersionHash [32]byte
	TokenID           string
	HasToken          bool
	IssuedAt          time.Time
	ExpiresAt         time.Time
	HasExpiry         bool
}

// PolicyLoadedPayload is the canonical ledger payload for an
// EventPolicyLoaded entry, spec.md §4.4.
type PolicyLoadedPayload struct {
	PolicyID            string
	VersionHash         [32]byte
	PreviousVersionHash [32]byte
	HasPrevious         bool
}

// VerifyFailureReason enumerates the reasons Ledger.Verify can report for
// a single entry, spec.md §4.6.
type VerifyFailureReason string

const (
	FailureHashMismatch        VerifyFailureReason = "hash_mismatch"
	FailureSignatureInvalid    VerifyFailureReason = "signature_invalid"
	FailureSeqGap              VerifyFailureReason = "seq_gap"
	FailureTimestampRegression VerifyFailureReason = "timestamp_regression"
	FailureUnknownSigner       VerifyFailureReason = "unknown_signer"
	FailureDecodeError         VerifyFailureReason = "decode_error"
)

// VerifyFailure pairs a sequence number with why it failed verification.
type VerifyFailure struct {
	Seq    uint64
	Reason VerifyFailureReason
}

// VerifyResult is the outcome of Ledger.Verify.
type VerifyResult struct {
	OK       bool
	Failures []VerifyFailure
}
