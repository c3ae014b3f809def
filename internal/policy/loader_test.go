package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/stretchr/testify/require"
)

const samplePolicyYAML = `
policy_id: acme-governance
version: "1.0.0"
mode: strict
default_token_ttl: 5m
escalation_threshold: 3
actions:
  - id: read
  - id: write
    attribute: 3
actors:
  - id: alice
    attribute: 4
relations:
  - id: allow-read
    variant: permits
    actor: "*"
    action: read
  - id: forbid-write
    variant: forbids
    actor: "*"
    action: write
`

func writeTempPolicy(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoaderLoadPublishesToActive(t *testing.T) {
	path := writeTempPolicy(t, samplePolicyYAML)
	active := NewActive()

	var loadedHash [32]byte
	var gotPrevious bool
	loader := NewLoader(path, nil, func(p model.Policy, prevHash [32]byte, hasPrevious bool) {
		loadedHash = p.VersionHash
		gotPrevious = hasPrevious
	})

	p, err := loader.Load(active)
	require.NoError(t, err)
	require.Equal(t, "acme-governance", p.PolicyID)
	require.NotEqual(t, [32]byte{}, p.VersionHash)
	require.Equal(t, p.VersionHash, loadedHash)
	require.False(t, gotPrevious)

	current, ok := active.Current()
	require.True(t, ok)
	require.Equal(t, p.VersionHash, current.VersionHash)
}

func TestLoaderReloadReportsPreviousHash(t *testing.T) {
	path := writeTempPolicy(t, samplePolicyYAML)
	active := NewActive()

	var calls int
	loader := NewLoader(path, nil, func(p model.Policy, prevHash [32]byte, hasPrevious bool) {
		calls++
		if calls == 2 {
			require.True(t, hasPrevious)
		}
	})

	_, err := loader.Load(active)
	require.NoError(t, err)
	_, err = loader.Reload(active)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestLoaderRejectsInvalidDocument(t *testing.T) {
	path := writeTempPolicy(t, "policy_id: \"\"\n")
	active := NewActive()
	loader := NewLoader(path, nil, nil)
	_, err := loader.Load(active)
	require.Error(t, err)
}
