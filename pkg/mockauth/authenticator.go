package mockauth

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/debug"
)

// Attribute keys mapped onto auth.Identity fields.
const (
	AttributeTenant      = "tenant_id"
	AttributeServiceTier = "service_tier"
)

// Authenticator lets a security pipeline accept authentications stored in
// the request context by ContextInjector. It abstains when there is none,
// votes No when the principal is absent, and Yes otherwise.
type Authenticator struct{}

var _ auth.Authenticator = Authenticator{}

// Authenticate implements auth.Authenticator.
func (Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	a, ok := AuthenticationFromContext(r.Context())
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	name, ok := a.Principal()
	if !ok {
		debug.Log("auth", "mock authentication without principal", "kind", a.Kind)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("mock %s authentication has no principal: %w", a.Kind, auth.ErrUnauthenticated),
		}
	}

	return auth.AuthResult{Decision: auth.Yes, Identity: ToIdentity(name, a)}
}

// ToIdentity converts a to the pipeline's identity. String attributes
// become metadata, where Identity.TenantID reads tenant_id. service_tier
// also fills ServiceTier.
func ToIdentity(subject string, a Authentication) *auth.Identity {
	id := &auth.Identity{
		Subject:     subject,
		Authorities: slices.Clone(a.Authorities),
		Metadata:    make(map[string]string, len(a.Attributes)),
	}
	if a.Credentials != nil {
		id.Scopes = a.Credentials.Scopes()
	}
	for k, v := range a.Attributes {
		if s, ok := v.(string); ok {
			id.Metadata[k] = s
		}
	}
	id.ServiceTier = id.Metadata[AttributeServiceTier]
	return id
}
