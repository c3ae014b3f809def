// Package decision implements the Decision Service (C7): the orchestrator
// that validates a request, pins it to the currently active policy,
// invokes the Policy Engine, mints a capability token on Allow, and
// records the outcome in the Ledger before responding. Nothing here
// mutates policy state; it only reads the Active snapshot and writes
// ledger entries.
package decision

import (
	"context"
	"errors"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/engine"
	"github.com/blackrose-blackhat/decisionguard/internal/escalation"
	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/ledger"
	"github.com/blackrose-blackhat/decisionguard/internal/metrics"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/obslog"
	"github.com/blackrose-blackhat/decisionguard/internal/policy"
	"github.com/google/uuid"
)

// Response is the DecisionResponse of spec.md §4.5: everything the caller
// needs to act on a verdict and independently audit it later.
type Response struct {
	DecisionID        string
	Verdict           model.Verdict
	ReasonTrace       []model.ReasonStep
	Token             model.CapabilityToken
	HasToken          bool
	EntryHash         [32]byte
	EntrySignature    [64]byte
	PolicyVersionHash [32]byte
	IssuedAt          time.Time
	ExpiresAt         time.Time
	HasExpiry         bool
}

// Clock abstracts wall-clock reads so tests can inject a fixed time.
type Clock func() time.Time

// Service wires the Policy Engine, the Ledger, and the signing identity
// into the end-to-end decision path, spec.md §4.5.
type Service struct {
	Active *policy.Active
	Ledger *ledger.Ledger
	Ring   *identity.KeyRing
	Deps   engine.Deps
	Log    *obslog.Logger

	// Metrics and Escalations are optional; a nil value disables the
	// corresponding side effect without affecting the decision itself.
	Metrics     *metrics.Sink
	Escalations escalation.Notifier

	Clock Clock

	idempotency *idempotencyCache
}

// NewService builds a Service. idempotencyRetention is how long a
// (tenant_id, request_id) pair's response is remembered (spec.md §4.5
// "Idempotency"); 0 selects the 10-minute default.
func NewService(active *policy.Active, led *ledger.Ledger, ring *identity.KeyRing, deps engine.Deps, log *obslog.Logger, idempotencyRetention time.Duration) *Service {
	if idempotencyRetention <= 0 {
		idempotencyRetention = 10 * time.Minute
	}
	return &Service{
		Active:      active,
		Ledger:      led,
		Ring:        ring,
		Deps:        deps,
		Log:         log,
		Clock:       time.Now,
		idempotency: newIdempotencyCache(idempotencyRetention),
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Decide runs the full spec.md §4.5 protocol:
//
//  1. capture wall clock
//  2. validate the principal and the raw request
//  3. pin the active policy
//  4. check the idempotency cache
//  5. evaluate
//  6. mint a capability token on Allow
//  7. append the decision to the ledger
//  8. respond
func (s *Service) Decide(ctx context.Context, principal Principal, raw Raw) (Response, *Error) {
	wallClock := s.now()

	if verr := validatePrincipal(principal); verr != nil {
		return Response{}, verr
	}

	if raw.RequestID == "" {
		raw.RequestID = randomID()
	}

	if verr := validateRaw(raw); verr != nil {
		return Response{}, verr
	}

	p, ok := s.Active.Current()
	if !ok {
		return Response{}, newError(Internal, "no policy loaded")
	}

	tenantID := principal.TenantID

	req := model.DecisionRequest{
		RequestID:    raw.RequestID,
		TenantID:     tenantID,
		ActorID:      raw.ActorID,
		ActionID:     raw.ActionID,
		ResourceID:   raw.ResourceID,
		HasResource:  raw.ResourceID != "",
		DataClass:    raw.DataClass,
		HasDataClass: raw.DataClass != "",
		Context:      raw.Context,
		WallClock:    wallClock,
	}
	if raw.RiskLevel != nil {
		req.RiskLevel = *raw.RiskLevel
		req.HasRiskLevel = true
	}

	digest, err := canon.RequestDigest(req)
	if err != nil {
		return Response{}, newError(InvalidRequest, "request cannot be canonically encoded: "+err.Error())
	}

	if cached, found, matched := s.idempotency.lookup(tenantID, raw.RequestID, digest, wallClock); found {
		if !matched {
			return Response{}, newError(Conflict, "request_id already used with a different request body")
		}
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return Response{}, newError(Timeout, "context canceled before evaluation")
	}

	outcome := engine.Evaluate(p, req, s.Deps)

	decisionID := randomID()

	resp := Response{
		DecisionID:        decisionID,
		Verdict:           outcome.Verdict,
		ReasonTrace:       outcome.ReasonTrace,
		PolicyVersionHash: p.VersionHash,
	}

	if outcome.Verdict == model.Allow {
		tok, err := mintToken(s.Ring, req, digest, p, wallClock, 0)
		if err != nil {
			return Response{}, newError(Internal, "mint token: "+err.Error())
		}
		resp.Token = tok
		resp.HasToken = true
		resp.IssuedAt = tok.IssuedAt
		resp.ExpiresAt = tok.ExpiresAt
		resp.HasExpiry = true
	}

	traceDigest, err := canon.ReasonTraceDigest(outcome.ReasonTrace)
	if err != nil {
		return Response{}, newError(Internal, "encode reason trace: "+err.Error())
	}

	payload := model.DecisionPayload{
		TenantID:          tenantID,
		DecisionID:        decisionID,
		RequestDigest:     digest,
		Verdict:           outcome.Verdict,
		ReasonTraceDigest: traceDigest,
		PolicyVersionHash: p.VersionHash,
	}
	if resp.HasToken {
		payload.TokenID = resp.Token.TokenID
		payload.HasToken = true
		payload.IssuedAt = resp.Token.IssuedAt
		payload.ExpiresAt = resp.Token.ExpiresAt
		payload.HasExpiry = true
	} else {
		payload.IssuedAt = wallClock
	}

	encodedPayload, err := canon.DecisionPayload(payload)
	if err != nil {
		return Response{}, newError(Internal, "encode decision payload: "+err.Error())
	}

	entry, appendErr := s.Ledger.Append(ctx, tenantID, model.EventDecision, encodedPayload, wallClock)
	if appendErr != nil {
		if errors.Is(appendErr, ledger.ErrBackpressure) {
			s.Metrics.RecordLedgerAppend(tenantID, "backpressure")
			return Response{}, newError(Unavailable, "ledger append backpressure")
		}
		if errors.Is(appendErr, context.DeadlineExceeded) || errors.Is(appendErr, context.Canceled) {
			s.Metrics.RecordLedgerAppend(tenantID, "timeout")
			return Response{}, newError(Timeout, "ledger append: "+appendErr.Error())
		}
		if s.Log != nil {
			s.Log.Errorf("ledger append failed", obslog.Fields{"tenant_id": tenantID, "error": appendErr.Error()})
		}
		s.Metrics.RecordLedgerAppend(tenantID, "error")
		return Response{}, newError(Internal, "ledger append: "+appendErr.Error())
	}
	s.Metrics.RecordLedgerAppend(tenantID, "ok")

	resp.EntryHash = entry.EntryHash
	resp.EntrySignature = entry.Signature

	s.Metrics.RecordDecision(string(outcome.Verdict), s.now().Sub(wallClock).Seconds())

	if outcome.Verdict == model.Escalate && s.Escalations != nil {
		s.Escalations.Notify(escalation.Item{
			DecisionID: decisionID,
			TenantID:   tenantID,
			ActorID:    raw.ActorID,
			ActionID:   raw.ActionID,
			Reason:     reasonSummary(outcome.ReasonTrace),
			RaisedAt:   wallClock,
			ExpiresAt:  wallClock.Add(30 * time.Minute),
		})
		s.Metrics.RecordEscalationQueued()
	}

	s.idempotency.store(tenantID, raw.RequestID, digest, resp, wallClock)

	return resp, nil
}

// Verify checks a previously minted CapabilityToken's signature and
// expiry, spec.md §6.
func (s *Service) Verify(t model.CapabilityToken) (valid bool, reason string) {
	return verifyToken(s.Ring, t, s.now())
}

// LedgerRange returns entries [from, to] for tenant, spec.md §3's audit
// surface over the Ledger.
func (s *Service) LedgerRange(tenant string, from, to uint64, limit int) ([]model.LedgerEntry, *Error) {
	entries, err := s.Ledger.Range(tenant, from, to, limit)
	if err != nil {
		return nil, newError(Internal, "ledger range: "+err.Error())
	}
	return entries, nil
}

// LedgerVerify checks the hash chain and signatures for tenant over
// [from, to], spec.md §4.6.
func (s *Service) LedgerVerify(tenant string, from, to uint64) (model.VerifyResult, *Error) {
	result, err := s.Ledger.Verify(tenant, from, to)
	if err != nil {
		return model.VerifyResult{}, newError(Internal, "ledger verify: "+err.Error())
	}
	return result, nil
}

func randomID() string {
	return uuid.NewString()
}

func reasonSummary(trace []model.ReasonStep) string {
	for _, step := range trace {
		if step.Role == model.RoleRequiredUnmet || step.Role == model.RoleEscalationTrigger {
			return step.Message
		}
	}
	if len(trace) > 0 {
		return trace[len(trace)-1].Message
	}
	return ""
}
