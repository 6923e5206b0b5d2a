package mockauth

import (
	"slices"

	"github.com/rhuss/mockauth/pkg/token"
)

// Assertions is a read-only view of the authentication a handle dispatched.
type Assertions struct {
	auth Authentication
}

func newAssertions(a Authentication) *Assertions {
	return &Assertions{auth: a.Clone()}
}

// Principal returns the principal name and whether one is present.
func (a *Assertions) Principal() (string, bool) { return a.auth.Principal() }

// Authorities returns a copy of the dispatched authorities.
func (a *Assertions) Authorities() []string { return slices.Clone(a.auth.Authorities) }

// HasAuthority reports whether authority was dispatched.
func (a *Assertions) HasAuthority(authority string) bool { return a.auth.HasAuthority(authority) }

// Kind returns the kind of the dispatched authentication.
func (a *Assertions) Kind() Kind { return a.auth.Kind }

// Token returns the dispatched credential, if any.
func (a *Assertions) Token() (token.Descriptor, bool) {
	if a.auth.Credentials == nil {
		return token.Descriptor{}, false
	}
	return *a.auth.Credentials, true
}

// Header returns a header of the dispatched credential.
func (a *Assertions) Header(key string) (string, bool) {
	if a.auth.Credentials == nil {
		return "", false
	}
	return a.auth.Credentials.Header(key)
}

// Claim returns a claim of the dispatched credential.
func (a *Assertions) Claim(key string) (any, bool) {
	if a.auth.Credentials == nil {
		return nil, false
	}
	return a.auth.Credentials.Claim(key)
}

// RawValue returns the raw credential value, or "" without credentials.
func (a *Assertions) RawValue() string { return a.auth.RawCredential() }

// Attribute returns a copy of an authentication attribute.
func (a *Assertions) Attribute(key string) (any, bool) {
	v, ok := a.auth.Attributes[key]
	if !ok {
		return nil, false
	}
	return token.CloneValue(v), true
}

// Attributes returns a deep copy of all authentication attributes.
func (a *Assertions) Attributes() map[string]any { return token.CloneMap(a.auth.Attributes) }

// Authentication returns a copy of the dispatched authentication.
func (a *Assertions) Authentication() Authentication { return a.auth.Clone() }
