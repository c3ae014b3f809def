// Package httpapi exposes the Decision Service over HTTP+JSON: decide,
// verify, and the ledger's audit surface, grounded on the teacher's
// internal/proxy.Handler (request-id header, sendErrorResponse JSON
// envelope, fail-closed error codes).
package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/decision"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/google/uuid"
)

// principalFromRequest derives the caller's Principal from headers set
// by the surrounding auth/session layer. tenant_id is never read from
// the JSON body: a caller controls the body, not these headers, so this
// is the only trustworthy source the Decision Service accepts.
func principalFromRequest(r *http.Request) decision.Principal {
	var roles []string
	if raw := r.Header.Get("X-Principal-Roles"); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}
	return decision.Principal{
		TenantID: strings.TrimSpace(r.Header.Get("X-Principal-Tenant-ID")),
		Subject:  strings.TrimSpace(r.Header.Get("X-Principal-Subject")),
		Roles:    roles,
	}
}

// Server wires a *decision.Service to HTTP handlers.
type Server struct {
	Service *decision.Service
	Logger  *log.Logger
}

// NewServer builds a Server. A nil logger discards log output.
func NewServer(svc *decision.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{Service: svc, Logger: logger}
}

// Routes registers every handler on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/decide", s.handleDecide)
	mux.HandleFunc("/v1/verify", s.handleVerify)
	mux.HandleFunc("/v1/ledger", s.handleLedgerRange)
	mux.HandleFunc("/v1/ledger/verify", s.handleLedgerVerify)
	mux.HandleFunc("/healthz", s.handleHealthz)
}

// errorResponse is the JSON envelope for every non-2xx response.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func sendError(w http.ResponseWriter, status int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Decision-Request-ID", requestID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     "request_failed",
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func statusForKind(kind decision.ErrorKind) int {
	switch kind {
	case decision.InvalidRequest:
		return http.StatusBadRequest
	case decision.Conflict:
		return http.StatusConflict
	case decision.Unavailable:
		return http.StatusServiceUnavailable
	case decision.Timeout:
		return http.StatusGatewayTimeout
	case decision.Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type decideRequest struct {
	RequestID  string                 `json:"request_id,omitempty"`
	ActorID    string                 `json:"actor_id"`
	ActionID   string                 `json:"action_id"`
	ResourceID string                 `json:"resource_id,omitempty"`
	DataClass  string                 `json:"data_class,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	RiskLevel  *int                   `json:"risk_level,omitempty"`
}

type reasonStepJSON struct {
	RuleID  string `json:"rule_id,omitempty"`
	Role    string `json:"role"`
	Message string `json:"message,omitempty"`
}

type decideResponse struct {
	DecisionID        string           `json:"decision_id"`
	Verdict           string           `json:"verdict"`
	ReasonTrace       []reasonStepJSON `json:"reason_trace"`
	Token             *tokenJSON       `json:"capability_token,omitempty"`
	EntryHash         string           `json:"entry_hash"`
	EntrySignature    string           `json:"entry_signature"`
	PolicyVersionHash string           `json:"policy_version_hash"`
	IssuedAt          time.Time        `json:"issued_at"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
}

type tokenJSON struct {
	TokenID           string    `json:"token_id"`
	RequestDigest     string    `json:"request_digest"`
	ActorID           string    `json:"actor_id"`
	ActionID          string    `json:"action_id"`
	DataClass         string    `json:"data_class,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	PolicyVersionHash string    `json:"policy_version_hash"`
	Signature         string    `json:"signature"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST", requestID)
		return
	}

	var req decideRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error(), requestID)
		return
	}

	ctx := map[string]model.ContextValue{}
	for k, v := range req.Context {
		switch tv := v.(type) {
		case string:
			ctx[k] = model.StringValue(tv)
		case bool:
			ctx[k] = model.BoolValue(tv)
		case float64:
			ctx[k] = model.IntValue(int64(tv))
		}
	}

	raw := decision.Raw{
		RequestID:  req.RequestID,
		ActorID:    req.ActorID,
		ActionID:   req.ActionID,
		ResourceID: req.ResourceID,
		DataClass:  req.DataClass,
		Context:    ctx,
		RiskLevel:  req.RiskLevel,
	}

	resp, derr := s.Service.Decide(r.Context(), principalFromRequest(r), raw)
	if derr != nil {
		sendError(w, statusForKind(derr.Kind), string(derr.Kind), derr.Message, requestID)
		return
	}

	out := decideResponse{
		DecisionID:        resp.DecisionID,
		Verdict:           string(resp.Verdict),
		EntryHash:         hex.EncodeToString(resp.EntryHash[:]),
		EntrySignature:    hex.EncodeToString(resp.EntrySignature[:]),
		PolicyVersionHash: hex.EncodeToString(resp.PolicyVersionHash[:]),
		IssuedAt:          resp.IssuedAt,
	}
	for _, step := range resp.ReasonTrace {
		out.ReasonTrace = append(out.ReasonTrace, reasonStepJSON{RuleID: step.RuleID, Role: string(step.Role), Message: step.Message})
	}
	if resp.HasExpiry {
		out.ExpiresAt = &resp.ExpiresAt
	}
	if resp.HasToken {
		out.Token = &tokenJSON{
			TokenID:           resp.Token.TokenID,
			RequestDigest:     hex.EncodeToString(resp.Token.RequestDigest[:]),
			ActorID:           resp.Token.ActorID,
			ActionID:          resp.Token.ActionID,
			DataClass:         resp.Token.DataClass,
			IssuedAt:          resp.Token.IssuedAt,
			ExpiresAt:         resp.Token.ExpiresAt,
			PolicyVersionHash: hex.EncodeToString(resp.Token.PolicyVersionHash[:]),
			Signature:         hex.EncodeToString(resp.Token.Signature[:]),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Decision-Request-ID", requestID)
	_ = json.NewEncoder(w).Encode(out)
}

type verifyRequest struct {
	TokenID           string `json:"token_id"`
	RequestDigestHex  string `json:"request_digest"`
	ActorID           string `json:"actor_id"`
	ActionID          string `json:"action_id"`
	DataClass         string `json:"data_class,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	PolicyVersionHex  string `json:"policy_version_hash"`
	SignatureHex      string `json:"signature"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST", requestID)
		return
	}

	var req verifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error(), requestID)
		return
	}

	tok := model.CapabilityToken{
		TokenID:      req.TokenID,
		ActorID:      req.ActorID,
		ActionID:     req.ActionID,
		DataClass:    req.DataClass,
		HasDataClass: req.DataClass != "",
		IssuedAt:     req.IssuedAt,
		ExpiresAt:    req.ExpiresAt,
	}
	if !decodeHexInto(req.RequestDigestHex, tok.RequestDigest[:]) ||
		!decodeHexInto(req.PolicyVersionHex, tok.PolicyVersionHash[:]) ||
		!decodeHexInto(req.SignatureHex, tok.Signature[:]) {
		sendError(w, http.StatusBadRequest, "invalid_request", "malformed hex field", requestID)
		return
	}

	valid, reason := s.Service.Verify(tok)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(verifyResponse{Valid: valid, Reason: reason})
}

func decodeHexInto(s string, dst []byte) bool {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(dst) {
		return false
	}
	copy(dst, b)
	return true
}

func (s *Server) handleLedgerRange(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	q := r.URL.Query()
	tenant := q.Get("tenant_id")
	if tenant == "" {
		sendError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required", requestID)
		return
	}
	from := parseUintParam(q.Get("from"), 1)
	to := parseUintParam(q.Get("to"), 0)
	limit := int(parseUintParam(q.Get("limit"), 0))

	entries, derr := s.Service.LedgerRange(tenant, from, to, limit)
	if derr != nil {
		sendError(w, statusForKind(derr.Kind), string(derr.Kind), derr.Message, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleLedgerVerify(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	q := r.URL.Query()
	tenant := q.Get("tenant_id")
	if tenant == "" {
		sendError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required", requestID)
		return
	}
	from := parseUintParam(q.Get("from"), 1)
	to := parseUintParam(q.Get("to"), 0)

	result, derr := s.Service.LedgerVerify(tenant, from, to)
	if derr != nil {
		sendError(w, statusForKind(derr.Kind), string(derr.Kind), derr.Message, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func parseUintParam(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
