package policy

import "time"

// document is the on-disk YAML shape a policy file is parsed into, before
// being normalized into a model.Policy. Field names mirror the teacher's
// GuardrailPolicy document style (flat, yaml-tagged, grouped by concern)
// rather than model.Policy's internal representation.
type document struct {
	PolicyID            string             `yaml:"policy_id"`
	Version             string             `yaml:"version"`
	Mode                string             `yaml:"mode"`
	DefaultTokenTTL     string             `yaml:"default_token_ttl"`
	EscalationThreshold int                `yaml:"escalation_threshold"`

	Actions     []termDoc `yaml:"actions"`
	Actors      []termDoc `yaml:"actors"`
	DataClasses []termDoc `yaml:"data_classes"`

	Relations []relationDoc `yaml:"relations"`
}

type termDoc struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Attribute   *int   `yaml:"attribute,omitempty"`
}

type relationDoc struct {
	ID            string          `yaml:"id"`
	Variant       string          `yaml:"variant"`
	Actor         string          `yaml:"actor,omitempty"`
	Action        string          `yaml:"action,omitempty"`
	DataClass     string          `yaml:"data_class,omitempty"`
	Conditions    []conditionDoc  `yaml:"conditions,omitempty"`
	Reason        string          `yaml:"reason,omitempty"`
	ImpliedAction string          `yaml:"implied_action,omitempty"`
}

type conditionDoc struct {
	Type           string   `yaml:"type"`
	EscalateOnFail bool     `yaml:"escalate_on_fail,omitempty"`

	StartMinute int      `yaml:"start_minute,omitempty"`
	EndMinute   int      `yaml:"end_minute,omitempty"`
	TZ          string   `yaml:"tz,omitempty"`
	DaysOfWeek  []int    `yaml:"days_of_week,omitempty"`

	KeySelector string `yaml:"key_selector,omitempty"`
	Max         int    `yaml:"max,omitempty"`
	Window      string `yaml:"window,omitempty"`

	ApproverRole string `yaml:"approver_role,omitempty"`

	Field    string   `yaml:"field,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	ValueSet []string `yaml:"value_set,omitempty"`

	N int `yaml:"n,omitempty"`
}

// parseDuration accepts the empty string as "unset" so callers can apply a
// default rather than forcing every document to spell out a TTL.
func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
