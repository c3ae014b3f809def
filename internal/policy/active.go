package policy

import (
	"sync/atomic"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
)

// Active publishes a policy for lock-free concurrent reads, the same
// atomic-pointer publish-once-swap pattern the teacher's cedar.Engine uses
// for its policySet (internal/cedar/engine.go). Every Decide call reads
// one snapshot via Current and evaluates entirely against it, so a Load
// racing with in-flight decisions never produces a decision evaluated
// against a mix of old and new policy state.
type Active struct {
	ptr atomic.Pointer[model.Policy]
}

// NewActive returns an Active with no policy loaded yet.
func NewActive() *Active { return &Active{} }

// Store publishes p as the current policy.
func (a *Active) Store(p model.Policy) { a.ptr.Store(&p) }

// Current returns the currently published policy and whether one has ever
// been loaded.
func (a *Active) Current() (model.Policy, bool) {
	p := a.ptr.Load()
	if p == nil {
		return model.Policy{}, false
	}
	return *p, true
}
