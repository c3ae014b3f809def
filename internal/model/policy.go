package model

import "time"

// Mode selects the default verdict when no forbid matched and no permit
// was satisfied.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// DefaultEscalationThreshold is used when a Policy does not set one
// explicitly. spec.md §4.3 step 7 names 4 as the default.
const DefaultEscalationThreshold = 4

// MaxTokenTTL bounds CapabilityToken lifetime per spec.md §3.
const MaxTokenTTL = 30 * time.Minute

// Policy is the immutable record produced by the Policy Loader (C4) and
// published as the ActivePolicy. VersionHash is the cryptographic identity
// used for ledger pinning and token binding; Version is informational only
// and is never compared for any authorization decision (spec.md §9, Open
// Question 2).
type Policy struct {
	PolicyID  string `json:"policy_id"`
	Version   string `json:"version"`
	VersionHash [32]byte `json:"version_hash"`

	Mode Mode `json:"mode"`

	Terms     []Term     `json:"terms"`
	Relations []Relation `json:"relations"`

	DefaultTokenTTL     time.Duration `json:"default_token_ttl"`
	EscalationThreshold int           `json:"escalation_threshold"`

	// CedarRendering is an informational, human-readable rendering of the
	// Permit/Forbid relations as Cedar policy text. It is never evaluated
	// on the decision path; it exists for operator review and as the
	// input to the Loader's shadow-compile validation check.
	CedarRendering string `json:"cedar_rendering,omitempty"`
}

// TermByID returns the term of the given kind with the given id, if any.
func (p *Policy) TermByID(kind TermKind, id string) (Term, bool) {
	for _, t := range p.Terms {
		if t.Kind == kind && t.ID == id {
			return t, true
		}
	}
	return Term{}, false
}

// EffectiveEscalationThreshold returns EscalationThreshold, defaulting to
// DefaultEscalationThreshold when unset (zero value).
func (p *Policy) EffectiveEscalationThreshold() int {
	if p.EscalationThreshold <= 0 {
		return DefaultEscalationThreshold
	}
	return p.EscalationThreshold
}
