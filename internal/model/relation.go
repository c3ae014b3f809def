package model

// RelationVariant identifies one of the four relation kinds spec.md
// defines over the policy lexicon.
type RelationVariant string

const (
	RelationPermits  RelationVariant = "permits"
	RelationForbids  RelationVariant = "forbids"
	RelationRequires RelationVariant = "requires"
	RelationImplies  RelationVariant = "implies"
)

// Relation is a directed rule referencing zero or more terms. Which fields
// are meaningful depends on Variant:
//
//	Permits:  Actor, Action, DataClass (optional), Conditions
//	Forbids:  Actor, Action, DataClass (optional), Reason (no conditions)
//	Requires: Action, Conditions
//	Implies:  Action (= action_a), ImpliedAction (= action_b)
type Relation struct {
	ID      string          `yaml:"id" json:"id"`
	Variant RelationVariant `yaml:"variant" json:"variant"`

	Actor     string `yaml:"actor,omitempty" json:"actor,omitempty"`
	Action    string `yaml:"action,omitempty" json:"action,omitempty"`
	DataClass string `yaml:"data_class,omitempty" json:"data_class,omitempty"`

	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Reason     string      `yaml:"reason,omitempty" json:"reason,omitempty"`

	ImpliedAction string `yaml:"implied_action,omitempty" json:"implied_action,omitempty"`
}

// MatchesActor reports whether the relation's actor pattern matches id.
func (r Relation) MatchesActor(id string) bool {
	return r.Actor == Wildcard || r.Actor == id
}

// MatchesAction reports whether the relation's action pattern matches id.
func (r Relation) MatchesAction(id string) bool {
	return r.Action == Wildcard || r.Action == id
}

// MatchesDataClass reports whether the relation's data_class pattern
// matches id. An absent pattern (empty string) matches any data class,
// including an absent request data class.
func (r Relation) MatchesDataClass(id string) bool {
	if r.DataClass == "" {
		return true
	}
	return r.DataClass == Wildcard || r.DataClass == id
}
