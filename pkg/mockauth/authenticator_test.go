package mockauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/identity"
	"github.com/rhuss/mockauth/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_Abstains(t *testing.T) {
	result := Authenticator{}.Authenticate(t.Context(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, auth.Abstain, result.Decision)
}

func TestAuthenticator_NoPrincipal(t *testing.T) {
	r := dispatch(t, JWT(token.RemoveClaim("sub")), ContextInjector())

	result := Authenticator{}.Authenticate(r.Context(), r)

	assert.Equal(t, auth.No, result.Decision)
	require.ErrorIs(t, result.Err, auth.ErrUnauthenticated)
}

func TestAuthenticator_JWT(t *testing.T) {
	r := dispatch(t, JWT(
		token.Subject("alice"),
		token.Scope("read", "write"),
		token.Claim("tenant_id", "org-1"),
		token.Claim("service_tier", "gold"),
	), ContextInjector())

	result := Authenticator{}.Authenticate(r.Context(), r)

	require.Equal(t, auth.Yes, result.Decision)
	id := result.Identity
	assert.Equal(t, "alice", id.Subject)
	assert.Equal(t, []string{"SCOPE_read", "SCOPE_write"}, id.Authorities)
	assert.Equal(t, []string{"read", "write"}, id.Scopes)
	assert.Equal(t, "org-1", id.TenantID())
	assert.Equal(t, "gold", id.ServiceTier)
}

func TestAuthenticator_User(t *testing.T) {
	d, err := identity.WithUser("root", "ADMIN")
	require.NoError(t, err)
	r := dispatch(t, User(d.WithAttribute("level", 3)), ContextInjector())

	result := Authenticator{}.Authenticate(r.Context(), r)

	require.Equal(t, auth.Yes, result.Decision)
	assert.True(t, result.Identity.HasAuthority("ROLE_ADMIN"))
	assert.Empty(t, result.Identity.Scopes)
	assert.NotContains(t, result.Identity.Metadata, "level", "non-string attributes are not metadata")
}

func TestAuthenticator_ThroughPipeline(t *testing.T) {
	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{Authenticator{}},
		DefaultDecision: auth.No,
	}
	protected := auth.Middleware(chain, nil, nil)(
		auth.RequireAuthority("ROLE_ADMIN")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(auth.IdentityFromContext(r.Context()).Subject))
		})),
	)

	serve := func(h *Handle) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, dispatch(t, h))
		return rec
	}

	admin, err := identity.WithUser("root", "ADMIN")
	require.NoError(t, err)
	rec := serve(User(admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(User(identity.Default())).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(JWT(token.RemoveClaim("sub"))).Code)

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
