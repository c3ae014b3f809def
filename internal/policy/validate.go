package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/obslog"
)

// ValidationError collects every problem found in a policy document, so an
// operator sees all of them at once instead of fixing one error per reload
// attempt.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy: %d validation problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) ok() bool { return len(e.Problems) == 0 }

// normalize converts a parsed document into a model.Policy, validating
// spec.md §4.4's structural rules along the way:
//
//   - policy_id and every term id non-empty and unique within its kind
//   - every actor/action/data_class pattern on a relation is either "*"
//     or a declared term id
//   - forbid relations carry no conditions
//   - requires relations name an action ("*" or declared) and at least
//     one condition; any actor or data_class on them is not checked
//   - implies relations reference two declared actions
//   - condition field combinations match their type, and numeric ranges
//     (minutes, attribute levels, rate limit parameters) are sane
//   - term attribute values, when present, are within 1..5
func normalize(doc document) (model.Policy, error) {
	verr := &ValidationError{}

	if doc.PolicyID == "" {
		verr.add("policy_id is required")
	}

	mode := model.Mode(doc.Mode)
	if mode == "" {
		mode = model.ModeStrict
	}
	if mode != model.ModeStrict && mode != model.ModePermissive {
		verr.add("mode %q is not one of strict, permissive", doc.Mode)
	}

	ttl, err := parseDuration(doc.DefaultTokenTTL, model.MaxTokenTTL)
	if err != nil {
		verr.add("default_token_ttl: %v", err)
	} else if ttl <= 0 || ttl > model.MaxTokenTTL {
		verr.add("default_token_ttl %s must be in (0, %s]", ttl, model.MaxTokenTTL)
	}

	if doc.EscalationThreshold < 0 {
		verr.add("escalation_threshold must not be negative")
	}

	actions := buildTerms(model.TermAction, doc.Actions, verr)
	actors := buildTerms(model.TermActor, doc.Actors, verr)
	dataClasses := buildTerms(model.TermDataClass, doc.DataClasses, verr)

	knownAction := lexicon(actions)
	knownActor := lexicon(actors)
	knownDataClass := lexicon(dataClasses)

	seenRelationID := map[string]bool{}
	relations := make([]model.Relation, 0, len(doc.Relations))
	for _, rd := range doc.Relations {
		if rd.ID == "" {
			verr.add("relation missing id")
		} else if seenRelationID[rd.ID] {
			verr.add("duplicate relation id %q", rd.ID)
		}
		seenRelationID[rd.ID] = true

		variant := model.RelationVariant(rd.Variant)
		r := model.Relation{
			ID:            rd.ID,
			Variant:       variant,
			Actor:         rd.Actor,
			Action:        rd.Action,
			DataClass:     rd.DataClass,
			Reason:        rd.Reason,
			ImpliedAction: rd.ImpliedAction,
		}

		switch variant {
		case model.RelationPermits:
			requirePattern(verr, "relation "+rd.ID, "actor", rd.Actor, knownActor)
			requirePattern(verr, "relation "+rd.ID, "action", rd.Action, knownAction)
			if rd.DataClass != "" {
				requirePattern(verr, "relation "+rd.ID, "data_class", rd.DataClass, knownDataClass)
			}
			r.Conditions = buildConditions(rd.ID, rd.Conditions, verr)
		case model.RelationForbids:
			requirePattern(verr, "relation "+rd.ID, "actor", rd.Actor, knownActor)
			requirePattern(verr, "relation "+rd.ID, "action", rd.Action, knownAction)
			if rd.DataClass != "" {
				requirePattern(verr, "relation "+rd.ID, "data_class", rd.DataClass, knownDataClass)
			}
			if len(rd.Conditions) > 0 {
				verr.add("relation %s: forbid relations must not declare conditions", rd.ID)
			}
		case model.RelationRequires:
			requirePattern(verr, "relation "+rd.ID, "action", rd.Action, knownAction)
			if len(rd.Conditions) == 0 {
				verr.add("relation %s: requires relations must declare at least one condition", rd.ID)
			}
			r.Conditions = buildConditions(rd.ID, rd.Conditions, verr)
		case model.RelationImplies:
			if !knownAction[rd.Action] {
				verr.add("relation %s: implies action %q is not a declared action", rd.ID, rd.Action)
			}
			if !knownAction[rd.ImpliedAction] {
				verr.add("relation %s: implies implied_action %q is not a declared action", rd.ID, rd.ImpliedAction)
			}
			if rd.Action != "" && rd.Action == rd.ImpliedAction {
				verr.add("relation %s: implies action and implied_action must not be the same action (self-loop)", rd.ID)
			}
		default:
			verr.add("relation %s: unknown variant %q", rd.ID, rd.Variant)
		}

		relations = append(relations, r)
	}

	if !verr.ok() {
		return model.Policy{}, verr
	}

	terms := make([]model.Term, 0, len(actions)+len(actors)+len(dataClasses))
	terms = append(terms, actions...)
	terms = append(terms, actors...)
	terms = append(terms, dataClasses...)

	return model.Policy{
		PolicyID:            doc.PolicyID,
		Version:             doc.Version,
		Mode:                mode,
		Terms:               terms,
		Relations:           relations,
		DefaultTokenTTL:     ttl,
		EscalationThreshold: doc.EscalationThreshold,
	}, nil
}

func buildTerms(kind model.TermKind, docs []termDoc, verr *ValidationError) []model.Term {
	seen := map[string]bool{}
	out := make([]model.Term, 0, len(docs))
	for _, td := range docs {
		if td.ID == "" {
			verr.add("%s term missing id", kind)
			continue
		}
		if td.ID == model.Wildcard {
			verr.add("%s term id must not be the wildcard %q", kind, model.Wildcard)
			continue
		}
		if seen[td.ID] {
			verr.add("duplicate %s id %q", kind, td.ID)
		}
		seen[td.ID] = true

		t := model.Term{Kind: kind, ID: td.ID, Description: td.Description}
		if td.Attribute != nil {
			if *td.Attribute < 1 || *td.Attribute > 5 {
				verr.add("%s %q: attribute %d must be in 1..5", kind, td.ID, *td.Attribute)
			}
			t.HasAttribute = true
			t.Attribute = *td.Attribute
		}
		out = append(out, t)
	}
	return out
}

// overlapTriple identifies a relation by the (actor, action, data_class)
// pattern it matches on.
type overlapTriple struct {
	actor, action, dataClass string
}

// warnOverlappingPermitsForbids looks for Permits and Forbids relations
// that share an identical (actor, action, data_class) triple. Such pairs
// could become simultaneously matchable at evaluation time depending on
// their conditions; the loader warns about them instead of rejecting,
// since a forbid with no conditions always wins over any permit anyway.
func warnOverlappingPermitsForbids(relations []model.Relation, log *obslog.Logger) {
	if log == nil {
		return
	}

	permits := map[overlapTriple][]string{}
	forbids := map[overlapTriple][]string{}
	for _, r := range relations {
		t := overlapTriple{actor: r.Actor, action: r.Action, dataClass: r.DataClass}
		switch r.Variant {
		case model.RelationPermits:
			permits[t] = append(permits[t], r.ID)
		case model.RelationForbids:
			forbids[t] = append(forbids[t], r.ID)
		}
	}

	for t, permitIDs := range permits {
		forbidIDs, ok := forbids[t]
		if !ok {
			continue
		}
		log.Warnf("permits and forbids relations share an identical (actor, action, data_class) triple", obslog.Fields{
			"actor":      t.actor,
			"action":     t.action,
			"data_class": t.dataClass,
			"permits":    strings.Join(permitIDs, ","),
			"forbids":    strings.Join(forbidIDs, ","),
		})
	}
}

func lexicon(terms []model.Term) map[string]bool {
	m := make(map[string]bool, len(terms))
	for _, t := range terms {
		m[t.ID] = true
	}
	return m
}

func requirePattern(verr *ValidationError, context, field, pattern string, known map[string]bool) {
	if pattern == "" {
		verr.add("%s: %s is required", context, field)
		return
	}
	if pattern == model.Wildcard {
		return
	}
	if !known[pattern] {
		verr.add("%s: %s %q is not a declared term", context, field, pattern)
	}
}

func buildConditions(relationID string, docs []conditionDoc, verr *ValidationError) []model.Condition {
	out := make([]model.Condition, 0, len(docs))
	for i, cd := range docs {
		ctxName := fmt.Sprintf("relation %s condition %d", relationID, i)
		ct := model.ConditionType(cd.Type)
		if !model.KnownConditionTypes[ct] {
			verr.add("%s: unknown condition type %q", ctxName, cd.Type)
			continue
		}

		c := model.Condition{
			Type:           ct,
			EscalateOnFail: cd.EscalateOnFail,
			StartMinute:    cd.StartMinute,
			EndMinute:      cd.EndMinute,
			TZ:             cd.TZ,
			KeySelector:    cd.KeySelector,
			Max:            cd.Max,
			ApproverRole:   cd.ApproverRole,
			Field:          cd.Field,
			Value:          cd.Value,
			ValueSet:       cd.ValueSet,
			N:              cd.N,
		}
		for _, d := range cd.DaysOfWeek {
			if d < 0 || d > 6 {
				verr.add("%s: days_of_week value %d out of range 0..6", ctxName, d)
				continue
			}
			c.DaysOfWeek = append(c.DaysOfWeek, time.Weekday(d))
		}

		switch ct {
		case model.CondTimeWindow:
			if cd.StartMinute < 0 || cd.StartMinute >= 1440 || cd.EndMinute < 0 || cd.EndMinute >= 1440 {
				verr.add("%s: start_minute/end_minute must be in 0..1439", ctxName)
			}
			if cd.TZ == "" {
				verr.add("%s: time_window requires tz", ctxName)
			} else if _, err := time.LoadLocation(cd.TZ); err != nil {
				verr.add("%s: tz %q is not a valid IANA timezone", ctxName, cd.TZ)
			}
		case model.CondRateLimit:
			if cd.Max <= 0 {
				verr.add("%s: rate_limit requires max > 0", ctxName)
			}
			w, err := parseDuration(cd.Window, 0)
			if err != nil || w <= 0 {
				verr.add("%s: rate_limit requires a positive window", ctxName)
			}
			c.Window = w
			if cd.KeySelector == "" {
				verr.add("%s: rate_limit requires key_selector", ctxName)
			}
		case model.CondApprovalPresent:
			if cd.ApproverRole == "" {
				verr.add("%s: approval_present requires approver_role", ctxName)
			}
		case model.CondContextEquals:
			if cd.Field == "" {
				verr.add("%s: context_equals requires field", ctxName)
			}
		case model.CondContextIn:
			if cd.Field == "" {
				verr.add("%s: context_in requires field", ctxName)
			}
			if len(cd.ValueSet) == 0 {
				verr.add("%s: context_in requires a non-empty value_set", ctxName)
			}
		case model.CondDataSensitivityAtMost, model.CondActorTrustAtLeast:
			if cd.N < 1 || cd.N > 5 {
				verr.add("%s: n must be in 1..5", ctxName)
			}
		}

		out = append(out, c)
	}
	return out
}
