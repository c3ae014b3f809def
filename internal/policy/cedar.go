package policy

import (
	"fmt"
	"strings"

	cedar "github.com/cedar-policy/cedar-go"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// renderCedar produces a human-readable Cedar rendering of a policy's
// Permits and Forbids relations. It is never evaluated on the decision
// path (internal/engine is pure Go); it exists for operator review and as
// the input to shadowCompile's validation check, the same non-authoritative
// role the teacher's cedar.Engine plays in its own pipeline — except here
// Cedar never sees live traffic.
func renderCedar(p model.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// shadow rendering of policy %s, version %s\n\n", p.PolicyID, p.Version)

	for _, r := range p.Relations {
		switch r.Variant {
		case model.RelationForbids:
			fmt.Fprintf(&b, "forbid(\n    principal == Actor::%q,\n    action == Action::%q,\n    resource\n)", r.Actor, r.Action)
			if r.DataClass != "" {
				fmt.Fprintf(&b, "\nwhen {\n    resource.data_class == %q\n}", r.DataClass)
			}
			b.WriteString(";\n\n")
		case model.RelationPermits:
			fmt.Fprintf(&b, "permit(\n    principal == Actor::%q,\n    action == Action::%q,\n    resource\n)", r.Actor, r.Action)
			if r.DataClass != "" {
				fmt.Fprintf(&b, "\nwhen {\n    resource.data_class == %q\n}", r.DataClass)
			}
			b.WriteString(";\n\n")
		}
	}

	return b.String()
}

// shadowCompile parses the rendered Cedar text as a sanity check that the
// policy's permit/forbid shape is at least Cedar-expressible. A parse
// failure here never blocks a load — see spec.md invariant I6, determinism
// of the decision path must not depend on Cedar — but it is surfaced as a
// warning to the caller so a malformed rendering doesn't hide silently.
func shadowCompile(rendering string) error {
	chunks := strings.Split(rendering, ";")
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" || strings.HasPrefix(chunk, "//") {
			continue
		}
		var pol cedar.Policy
		if err := pol.UnmarshalCedar([]byte(chunk + ";")); err != nil {
			return fmt.Errorf("policy: cedar shadow-compile warning: %w", err)
		}
	}
	return nil
}
