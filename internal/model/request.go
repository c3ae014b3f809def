package model

import "time"

// ScalarKind identifies the type of a ContextValue.
type ScalarKind byte

const (
	ScalarString ScalarKind = iota
	ScalarInt64
	ScalarBool
)

// ContextValue is a flat scalar stored in a DecisionRequest's context map.
// Nested structures are not supported; every condition in spec.md §4.3
// that reads context reads a flat key.
type ContextValue struct {
	Kind ScalarKind
	Str  string
	Int  int64
	Bool bool
}

func StringValue(s string) ContextValue { return ContextValue{Kind: ScalarString, Str: s} }
func IntValue(i int64) ContextValue     { return ContextValue{Kind: ScalarInt64, Int: i} }
func BoolValue(b bool) ContextValue     { return ContextValue{Kind: ScalarBool, Bool: b} }

// AsString renders the value for equality comparisons against string
// condition parameters (context_equals/context_in compare on string form).
func (v ContextValue) AsString() string {
	switch v.Kind {
	case ScalarString:
		return v.Str
	case ScalarInt64:
		return itoa(v.Int)
	case ScalarBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// DecisionRequest is the validated input to the Policy Engine and Decision
// Service, per spec.md §3.
type DecisionRequest struct {
	RequestID    string
	TenantID     string
	ActorID      string
	ActionID     string
	ResourceID   string
	HasResource  bool
	DataClass    string
	HasDataClass bool
	Context      map[string]ContextValue
	RiskLevel    int
	HasRiskLevel bool
	WallClock    time.Time
}

// WithAction returns a shallow copy of r with ActionID replaced. Used by
// the engine to build the synthetic request for Implies expansion
// (spec.md §4.3 step 5).
func (r DecisionRequest) WithAction(actionID string) DecisionRequest {
	r.ActionID = actionID
	return r
}
