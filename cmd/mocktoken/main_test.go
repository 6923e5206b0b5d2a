package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rhuss/mockauth/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runJSON(t *testing.T, args ...string) output {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, run(args, &buf))
	var out output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRun_Defaults(t *testing.T) {
	out := runJSON(t)

	assert.Equal(t, "token", out.Raw)
	assert.Equal(t, map[string]string{"alg": "none"}, out.Headers)
	assert.Equal(t, map[string]any{"sub": "user", "scope": "read"}, out.Claims)
	assert.Equal(t, []string{"SCOPE_read"}, out.Authorities)

	parsed, err := token.Parse(out.Compact)
	require.NoError(t, err)
	sub, _ := parsed.Subject()
	assert.Equal(t, "user", sub)
}

func TestRun_Flags(t *testing.T) {
	out := runJSON(t,
		"-sub", "alice",
		"-scope", "read write",
		"-claim", "tenant_id=org-1",
		"-claim", "level=3",
		"-header", "kid=k1",
		"-remove-claim", "tenant_id",
		"-raw", "raw-1",
	)

	assert.Equal(t, "raw-1", out.Raw)
	assert.Equal(t, "alice", out.Claims["sub"])
	assert.Equal(t, "read write", out.Claims["scope"])
	assert.InDelta(t, 3.0, out.Claims["level"], 0)
	assert.NotContains(t, out.Claims, "tenant_id")
	assert.Equal(t, "k1", out.Headers["kid"])
	assert.Equal(t, []string{"SCOPE_read", "SCOPE_write"}, out.Authorities)
}

func TestRun_ExplicitAuthorities(t *testing.T) {
	out := runJSON(t, "-scope", "read", "-authorities", "ROLE_ADMIN,SCOPE_x")

	assert.Equal(t, []string{"ROLE_ADMIN", "SCOPE_x"}, out.Authorities)
}

func TestRun_SignedAlgorithmHasNoCompact(t *testing.T) {
	out := runJSON(t, "-header", "alg=RS256")

	assert.Empty(t, out.Compact)
	assert.Equal(t, "RS256", out.Headers["alg"])
}

func TestRun_BadClaimFlag(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, run([]string{"-claim", "novalue"}, &buf))
}

func TestRun_Fixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mockauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fixtures:
  - name: admin
    kind: jwt
    subject: root
    scopes: [admin]
    tenant_id: org-9
  - name: svc
    kind: opaque
    subject: svc
    raw_value: opaque-xyz
  - name: person
    kind: user
    subject: bob
`), 0o600))

	out := runJSON(t, "-config", path, "-fixture", "admin")
	assert.Equal(t, "root", out.Claims["sub"])
	assert.Equal(t, "org-9", out.Claims["tenant_id"])
	assert.Equal(t, []string{"SCOPE_admin"}, out.Authorities)
	assert.NotEmpty(t, out.Compact)

	out = runJSON(t, "-config", path, "-fixture", "admin", "-sub", "override")
	assert.Equal(t, "override", out.Claims["sub"])

	out = runJSON(t, "-config", path, "-fixture", "svc")
	assert.Equal(t, "opaque-xyz", out.Raw)
	assert.Empty(t, out.Headers)
	assert.Empty(t, out.Compact)

	var buf bytes.Buffer
	require.Error(t, run([]string{"-config", path, "-fixture", "person"}, &buf))
	require.Error(t, run([]string{"-config", path, "-fixture", "missing"}, &buf))
}

func TestRun_CompactEncodingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fixtures:
  - name: broken
    kind: jwt
    claims:
      ratio: .nan
`), 0o600))

	var buf bytes.Buffer
	err := run([]string{"-config", path, "-fixture", "broken"}, &buf)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
