package mockauth

import (
	"slices"

	"github.com/rhuss/mockauth/pkg/token"
)

// Kind names how an Authentication was produced.
type Kind string

const (
	KindUser           Kind = "user"
	KindJWT            Kind = "jwt"
	KindOpaque         Kind = "opaque"
	KindAuthentication Kind = "authentication"
)

// Authentication is the principal and credential pair attached to a request.
// An empty Name means the principal is absent.
type Authentication struct {
	Name        string
	Authorities []string
	Attributes  map[string]any
	Credentials *token.Descriptor
	Kind        Kind
}

// Principal returns the principal name and whether one is present.
func (a Authentication) Principal() (string, bool) {
	return a.Name, a.Name != ""
}

// HasAuthority reports whether a holds authority.
func (a Authentication) HasAuthority(authority string) bool {
	return slices.Contains(a.Authorities, authority)
}

// RawCredential returns the raw credential value, or "" without credentials.
func (a Authentication) RawCredential() string {
	if a.Credentials == nil {
		return ""
	}
	return a.Credentials.RawValue()
}

// Clone returns a deep copy of a.
func (a Authentication) Clone() Authentication {
	out := a
	out.Authorities = slices.Clone(a.Authorities)
	out.Attributes = token.CloneMap(a.Attributes)
	if a.Credentials != nil {
		c := token.New(a.Credentials.RawValue(), a.Credentials.Headers(), a.Credentials.Claims())
		out.Credentials = &c
	}
	return out
}
