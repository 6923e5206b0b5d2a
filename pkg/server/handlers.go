package server

import (
	"net/http"

	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/transport"
)

// WhoAmI is the body of GET /whoami and GET /admin.
type WhoAmI struct {
	Subject     string            `json:"subject"`
	TenantID    string            `json:"tenant_id,omitempty"`
	ServiceTier string            `json:"service_tier,omitempty"`
	Scopes      []string          `json:"scopes"`
	Authorities []string          `json:"authorities"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}

func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		transport.WriteError(w, http.StatusUnauthorized, "invalid_request", "authentication required")
		return
	}

	body := WhoAmI{
		Subject:     id.Subject,
		TenantID:    auth.TenantFromContext(r.Context()),
		ServiceTier: id.ServiceTier,
		Scopes:      id.Scopes,
		Authorities: id.Authorities,
		Metadata:    id.Metadata,
		RequestID:   transport.RequestIDFromContext(r.Context()),
	}
	if body.Scopes == nil {
		body.Scopes = []string{}
	}
	if body.Authorities == nil {
		body.Authorities = []string{}
	}
	transport.WriteJSON(w, http.StatusOK, body)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
