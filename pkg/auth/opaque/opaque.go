// Package opaque provides an authenticator for opaque bearer tokens.
// Tokens are matched against a static table using SHA-256 hashing and
// constant-time comparison, standing in for a token introspection endpoint.
package opaque

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"maps"
	"net/http"
	"slices"

	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/debug"
)

// Entry maps a raw token value to the identity it introspects to.
type Entry struct {
	Token    string
	Identity auth.Identity
}

type hashedEntry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates bearer tokens against a static token table.
type Authenticator struct {
	entries []hashedEntry
}

// New creates an opaque token authenticator. Tokens are hashed immediately;
// plaintext values are not retained. Entries with an empty token are skipped.
func New(entries []Entry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		if e.Token == "" {
			continue
		}
		a.entries = append(a.entries, hashedEntry{
			hash:     sha256.Sum256([]byte(e.Token)),
			identity: e.Identity,
		})
	}
	return a
}

// Len reports the number of registered tokens.
func (a *Authenticator) Len() int { return len(a.entries) }

// Authenticate returns Yes for a registered token, No for an unknown bearer
// token, and Abstain when the request carries no bearer token.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	tok, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tok == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(tok))
	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(sum[:], e.hash[:]) == 1 {
			id := e.identity
			id.Scopes = slices.Clone(id.Scopes)
			id.Authorities = slices.Clone(id.Authorities)
			id.Metadata = maps.Clone(id.Metadata)
			debug.Log("auth", "opaque token introspected", "subject", id.Subject)
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
