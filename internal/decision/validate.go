package decision

import (
	"regexp"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// identifierPattern is spec.md §4.5 step 2's identifier grammar.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_./:-]{1,128}$`)

// maxContextBytes bounds a request's canonical context_map size.
const maxContextBytes = 64 * 1024

// Raw is an external, not-yet-validated request. RequestID is filled in
// by the Decision Service if absent; the wall clock is never taken from
// the caller, the service captures it itself (spec.md §3, §4.5 step 1).
type Raw struct {
	RequestID  string
	ActorID    string
	ActionID   string
	ResourceID string
	DataClass  string
	Context    map[string]model.ContextValue
	RiskLevel  *int
}

func validIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func validateRaw(r Raw) *Error {
	if r.ActorID == "" || !validIdentifier(r.ActorID) {
		return newError(InvalidRequest, "actor_id missing or malformed")
	}
	if r.ActionID == "" || !validIdentifier(r.ActionID) {
		return newError(InvalidRequest, "action_id missing or malformed")
	}
	if r.ResourceID != "" && !validIdentifier(r.ResourceID) {
		return newError(InvalidRequest, "resource_id malformed")
	}
	if r.DataClass != "" && !validIdentifier(r.DataClass) {
		return newError(InvalidRequest, "data_class malformed")
	}
	if r.RequestID != "" && !validIdentifier(r.RequestID) {
		return newError(InvalidRequest, "request_id malformed")
	}
	if r.RiskLevel != nil && (*r.RiskLevel < 1 || *r.RiskLevel > 5) {
		return newError(InvalidRequest, "risk_level must be in 1..5")
	}

	ctxBytes, err := canon.ContextMapBytes(r.Context)
	if err != nil {
		return newError(InvalidRequest, "context_map: "+err.Error())
	}
	if len(ctxBytes) > maxContextBytes {
		return newError(InvalidRequest, "context_map exceeds 64 KiB canonical size bound")
	}

	return nil
}
