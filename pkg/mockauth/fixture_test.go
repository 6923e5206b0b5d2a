package mockauth

import (
	"testing"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFixture_User(t *testing.T) {
	h, err := FromFixture(config.FixtureConfig{
		Name:        "admin",
		Kind:        config.FixtureUser,
		Subject:     "root",
		Roles:       []string{"ADMIN"},
		Attributes:  map[string]any{"email": "root@example.com"},
		TenantID:    "org-1",
		ServiceTier: "gold",
	})
	require.NoError(t, err)

	a, err := h.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, KindUser, a.Kind)
	assert.Equal(t, "root", a.Name)
	assert.Equal(t, []string{"ROLE_ADMIN"}, a.Authorities)
	assert.Equal(t, "root@example.com", a.Attributes["email"])
	assert.Equal(t, "org-1", a.Attributes[AttributeTenant])
	assert.Equal(t, "gold", a.Attributes[AttributeServiceTier])
}

func TestFromFixture_UserDefaults(t *testing.T) {
	h, err := FromFixture(config.FixtureConfig{Name: "anon", Kind: config.FixtureUser})
	require.NoError(t, err)

	a, err := h.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, "user", a.Name)
	assert.Equal(t, []string{"ROLE_USER"}, a.Authorities)
}

func TestFromFixture_UserExplicitAuthorities(t *testing.T) {
	h, err := FromFixture(config.FixtureConfig{
		Name:        "ops",
		Kind:        config.FixtureUser,
		Roles:       []string{"OPS"},
		Authorities: []string{"SCOPE_admin"},
	})
	require.NoError(t, err)

	a, err := h.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, []string{"SCOPE_admin"}, a.Authorities)
}

func TestFromFixture_JWT(t *testing.T) {
	h, err := FromFixture(config.FixtureConfig{
		Name:     "reader",
		Subject:  "alice",
		Scopes:   []string{"read", "write"},
		Headers:  map[string]string{"kid": "k1"},
		Claims:   map[string]any{"iss": "https://issuer"},
		TenantID: "org-2",
		RawValue: "fixture-token",
	})
	require.NoError(t, err)
	assert.Equal(t, KindJWT, h.Kind())

	a, err := h.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Name)
	assert.Equal(t, []string{"SCOPE_read", "SCOPE_write"}, a.Authorities)
	assert.Equal(t, "fixture-token", a.RawCredential())

	kid, ok := a.Credentials.Header("kid")
	require.True(t, ok)
	assert.Equal(t, "k1", kid)
	assert.Equal(t, "https://issuer", a.Attributes["iss"])
	assert.Equal(t, "org-2", a.Attributes["tenant_id"])
}

func TestFromFixture_Opaque(t *testing.T) {
	h, err := FromFixture(config.FixtureConfig{
		Name:        "svc",
		Kind:        config.FixtureOpaque,
		Subject:     "svc-a",
		RawValue:    "opaque-1",
		Authorities: []string{"SCOPE_admin"},
	})
	require.NoError(t, err)

	a, err := h.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, KindOpaque, a.Kind)
	assert.Equal(t, []string{"SCOPE_admin"}, a.Authorities)
	assert.Empty(t, a.Credentials.Headers())
}

func TestFromFixture_Errors(t *testing.T) {
	_, err := FromFixture(config.FixtureConfig{Name: "bad", Kind: "saml"})
	require.ErrorIs(t, err, api.ErrValidation)

	_, err = FromFixture(config.FixtureConfig{Name: "bad", Kind: config.FixtureUser, Roles: []string{"ROLE_X"}})
	require.ErrorIs(t, err, api.ErrValidation)
}
