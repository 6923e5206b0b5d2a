package opaque

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/mockauth/pkg/auth"
)

func newTestAuth() *Authenticator {
	return New([]Entry{
		{
			Token: "opaque-alice",
			Identity: auth.Identity{
				Subject:     "alice",
				ServiceTier: "standard",
				Authorities: []string{"SCOPE_read"},
				Metadata:    map[string]string{"tenant_id": "org-1"},
			},
		},
		{
			Token:    "opaque-bob",
			Identity: auth.Identity{Subject: "bob", ServiceTier: "premium"},
		},
		{Token: "", Identity: auth.Identity{Subject: "skipped"}},
	})
}

func request(header string) *http.Request {
	r, _ := http.NewRequest("GET", "/", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestKnownToken(t *testing.T) {
	a := newTestAuth()

	result := a.Authenticate(context.Background(), request("Bearer opaque-alice"))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %s, want yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
	if result.Identity.TenantID() != "org-1" {
		t.Errorf("TenantID = %q, want %q", result.Identity.TenantID(), "org-1")
	}
	if !result.Identity.HasAuthority("SCOPE_read") {
		t.Errorf("Authorities = %v, want SCOPE_read", result.Identity.Authorities)
	}
}

func TestDecisions(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   auth.AuthDecision
	}{
		{"unknown token", "Bearer opaque-mallory", auth.No},
		{"empty token", "Bearer ", auth.No},
		{"no header", "", auth.Abstain},
		{"basic scheme", "Basic dXNlcjpwYXNz", auth.Abstain},
		{"second entry", "Bearer opaque-bob", auth.Yes},
	}

	a := newTestAuth()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Authenticate(context.Background(), request(tc.header)).Decision; got != tc.want {
				t.Errorf("Decision = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEmptyTokensSkipped(t *testing.T) {
	if got := newTestAuth().Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestIdentityIsolation(t *testing.T) {
	a := newTestAuth()

	first := a.Authenticate(context.Background(), request("Bearer opaque-alice"))
	first.Identity.Metadata["tenant_id"] = "tampered"
	first.Identity.Authorities[0] = "ROLE_ADMIN"

	second := a.Authenticate(context.Background(), request("Bearer opaque-alice"))
	if second.Identity.TenantID() != "org-1" {
		t.Errorf("TenantID = %q, want %q", second.Identity.TenantID(), "org-1")
	}
	if second.Identity.HasAuthority("ROLE_ADMIN") {
		t.Error("mutation of a returned identity leaked into the table")
	}
}
