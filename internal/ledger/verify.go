package ledger

import (
	"sort"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Verify recomputes entry_hash and checks the signature for every entry
// in [from, to] for tenant, reporting every failure rather than
// short-circuiting on the first (spec.md §4.6). A stored entry whose
// body cannot be canonically decoded is reported as decode_error for its
// seq; it does not abort verification of the rest of the range.
func (l *Ledger) Verify(tenant string, from, to uint64) (model.VerifyResult, error) {
	entries, decodeFailures, err := l.scan(tenant, from, to, 0)
	if err != nil {
		return model.VerifyResult{}, err
	}

	result := model.VerifyResult{OK: true}
	for _, f := range decodeFailures {
		result.OK = false
		result.Failures = append(result.Failures, model.VerifyFailure{Seq: f.Seq, Reason: model.FailureDecodeError})
	}

	var prevHash [32]byte
	var prevTimestamp *int64
	var prevSeq *uint64

	for i, e := range entries {
		if i == 0 {
			if from <= 1 {
				prevHash = model.GenesisHash
			} else {
				prevHash = e.PreviousHash
			}
		}

		if prevSeq != nil && e.Seq != *prevSeq+1 {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureSeqGap})
		}
		if prevTimestamp != nil {
			if e.Timestamp.UnixMicro() < *prevTimestamp {
				result.OK = false
				result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureTimestampRegression})
			}
		}

		if i > 0 && e.PreviousHash != prevHash {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureHashMismatch})
		}

		recomputed, err := canon.EntryHash(e)
		if err != nil {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureDecodeError})
		} else if recomputed != e.EntryHash {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureHashMismatch})
		}

		if key, ok := l.ring.ValidAt(e.Timestamp); !ok {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureUnknownSigner})
		} else if !key.Verify(e.EntryHash[:], e.Signature) {
			result.OK = false
			result.Failures = append(result.Failures, model.VerifyFailure{Seq: e.Seq, Reason: model.FailureSignatureInvalid})
		}

		prevHash = e.EntryHash
		ts := e.Timestamp.UnixMicro()
		prevTimestamp = &ts
		seq := e.Seq
		prevSeq = &seq
	}

	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Seq < result.Failures[j].Seq })

	return result, nil
}
