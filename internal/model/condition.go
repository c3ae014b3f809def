package model

import "time"

// ConditionType is the closed enumeration of condition semantics the engine
// understands. Any other value is unknown and must fail closed.
type ConditionType string

const (
	CondTimeWindow            ConditionType = "time_window"
	CondRateLimit             ConditionType = "rate_limit"
	CondApprovalPresent       ConditionType = "approval_present"
	CondContextEquals         ConditionType = "context_equals"
	CondContextIn             ConditionType = "context_in"
	CondDataSensitivityAtMost ConditionType = "data_sensitivity_at_most"
	CondActorTrustAtLeast     ConditionType = "actor_trust_at_least"
)

// KnownConditionTypes enumerates every ConditionType the engine accepts.
var KnownConditionTypes = map[ConditionType]bool{
	CondTimeWindow:            true,
	CondRateLimit:             true,
	CondApprovalPresent:       true,
	CondContextEquals:         true,
	CondContextIn:             true,
	CondDataSensitivityAtMost: true,
	CondActorTrustAtLeast:     true,
}

// Condition is a single predicate attached to a Permits or Requires
// relation. Only the fields relevant to Type are populated; the loader is
// responsible for rejecting malformed combinations.
type Condition struct {
	Type           ConditionType `yaml:"type" json:"type"`
	EscalateOnFail bool          `yaml:"escalate_on_fail,omitempty" json:"escalate_on_fail,omitempty"`

	// time_window
	StartMinute int              `yaml:"start_minute,omitempty" json:"start_minute,omitempty"` // minutes since local midnight
	EndMinute   int              `yaml:"end_minute,omitempty" json:"end_minute,omitempty"`
	TZ          string           `yaml:"tz,omitempty" json:"tz,omitempty"`
	DaysOfWeek  []time.Weekday   `yaml:"days_of_week,omitempty" json:"days_of_week,omitempty"`

	// rate_limit
	KeySelector string        `yaml:"key_selector,omitempty" json:"key_selector,omitempty"`
	Max         int           `yaml:"max,omitempty" json:"max,omitempty"`
	Window      time.Duration `yaml:"window,omitempty" json:"window,omitempty"`

	// approval_present
	ApproverRole string `yaml:"approver_role,omitempty" json:"approver_role,omitempty"`

	// context_equals / context_in
	Field    string   `yaml:"field,omitempty" json:"field,omitempty"`
	Value    string   `yaml:"value,omitempty" json:"value,omitempty"`
	ValueSet []string `yaml:"value_set,omitempty" json:"value_set,omitempty"`

	// data_sensitivity_at_most / actor_trust_at_least
	N int `yaml:"n,omitempty" json:"n,omitempty"`
}
