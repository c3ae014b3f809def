// Package policy implements the Policy Loader (parsing, validation, version
// hashing, and publication of the active policy) and the ActivePolicy
// snapshot the engine and decision service read.
package policy

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/obslog"
)

// OnLoad is called once a policy has been validated, version-hashed, and
// published, so the caller can emit a policy_loaded ledger entry. It
// receives the newly active policy and the previous one's version hash,
// if any.
type OnLoad func(p model.Policy, previousHash [32]byte, hasPrevious bool)

// Loader reads a policy document from disk, validates it, computes its
// version hash, and publishes it to an Active, following the teacher's
// Loader shape (internal/policy/loader.go) generalized from a directory of
// independent named policies to a single versioned active policy plus
// the version hash of the previously loaded one.
type Loader struct {
	mu       sync.Mutex
	path     string
	log      *obslog.Logger
	onLoad   OnLoad
	lastHash [32]byte
	hasLast  bool
}

// NewLoader builds a Loader that reads path on each Load/Reload call.
func NewLoader(path string, log *obslog.Logger, onLoad OnLoad) *Loader {
	return &Loader{path: path, log: log, onLoad: onLoad}
}

// Load reads, validates, and publishes the policy at the loader's path
// into active. It is safe to call concurrently; calls serialize.
func (l *Loader) Load(active *Active) (model.Policy, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return model.Policy{}, fmt.Errorf("policy: read %s: %w", l.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Policy{}, fmt.Errorf("policy: parse %s: %w", l.path, err)
	}

	p, err := normalize(doc)
	if err != nil {
		return model.Policy{}, err
	}
	warnOverlappingPermitsForbids(p.Relations, l.log)

	p.CedarRendering = renderCedar(p)
	if err := shadowCompile(p.CedarRendering); err != nil && l.log != nil {
		l.log.Warnf("cedar shadow-compile did not parse cleanly", obslog.Fields{"policy_id": p.PolicyID, "error": err.Error()})
	}

	hash, err := canon.PolicyVersionHash(p)
	if err != nil {
		return model.Policy{}, fmt.Errorf("policy: compute version hash: %w", err)
	}
	p.VersionHash = hash

	previousHash := l.lastHash
	hadPrevious := l.hasLast

	active.Store(p)
	l.lastHash = hash
	l.hasLast = true

	if l.log != nil {
		l.log.Infof("policy loaded", obslog.Fields{
			"policy_id":    p.PolicyID,
			"version":      p.Version,
			"version_hash": fmt.Sprintf("%x", hash[:8]),
			"relations":    len(p.Relations),
		})
	}

	if l.onLoad != nil {
		l.onLoad(p, previousHash, hadPrevious)
	}

	return p, nil
}

// Reload re-reads the policy file and republishes it. It is identical to
// Load; the separate name matches the operational intent (an explicit
// operator-triggered reload versus the initial startup load).
func (l *Loader) Reload(active *Active) (model.Policy, error) {
	return l.Load(active)
}
