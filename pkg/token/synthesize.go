package token

import (
	"maps"
	"slices"
	"strings"

	"github.com/rhuss/mockauth/pkg/debug"
)

// Converter maps a synthesized token to the authorities the pipeline sees.
type Converter func(Descriptor) []string

// Mutation changes one aspect of a token under construction.
type Mutation func(*builder)

// Result is a synthesized token together with its resolved authorities.
type Result struct {
	Token       Descriptor
	Authorities []string
}

// HasAuthority reports whether authority was resolved for the token.
func (r Result) HasAuthority(authority string) bool {
	return slices.Contains(r.Authorities, authority)
}

type builder struct {
	headers  map[string]string
	claims   map[string]any
	rawValue string

	authorities []string
	explicit    bool
	converter   Converter

	prebuilt *Descriptor
}

// Synthesize builds a JWT-shaped token. Rules, in order:
//  1. start from Default()
//  2. apply mutations in order, last write wins
//  3. unless Authorities or WithConverter was given, derive one
//     SCOPE_-prefixed authority per scope entry
//
// A Prebuilt mutation replaces steps 1 and 2 and disables derivation.
func Synthesize(mutations ...Mutation) Result {
	d := Default()
	return synthesize(d.headers, d.claims, mutations)
}

// SynthesizeOpaque builds an opaque (introspected) token: no header map,
// the claims stand for the introspection attributes.
func SynthesizeOpaque(mutations ...Mutation) Result {
	d := Default()
	return synthesize(map[string]string{}, d.claims, mutations)
}

func synthesize(headers map[string]string, claims map[string]any, mutations []Mutation) Result {
	b := &builder{
		headers:  maps.Clone(headers),
		claims:   CloneMap(claims),
		rawValue: DefaultRawValue,
	}
	for _, m := range mutations {
		if m != nil {
			m(b)
		}
	}

	var tok Descriptor
	if b.prebuilt != nil {
		tok = New(b.prebuilt.rawValue, b.prebuilt.headers, b.prebuilt.claims)
	} else {
		tok = Descriptor{headers: b.headers, claims: b.claims, rawValue: b.rawValue}
	}

	var authorities []string
	switch {
	case b.explicit:
		authorities = dedupe(b.authorities)
	case b.converter != nil:
		authorities = dedupe(b.converter(New(tok.rawValue, tok.headers, tok.claims)))
	case b.prebuilt == nil:
		authorities = ScopeAuthorities(tok)
	}

	if debug.Enabled("synth") {
		subject, _ := tok.Subject()
		debug.Log("synth", "token synthesized",
			"subject", subject,
			"prebuilt", b.prebuilt != nil,
			"explicit_authorities", b.explicit,
			"authorities", authorities,
		)
	}

	return Result{Token: tok, Authorities: authorities}
}

// ScopeAuthorities is the default Converter: one AuthorityPrefix-ed
// authority per entry of the scope (or scp) claim.
func ScopeAuthorities(d Descriptor) []string {
	scopes := d.Scopes()
	if len(scopes) == 0 {
		return nil
	}
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = AuthorityPrefix + s
	}
	return out
}

// Header sets a header.
func Header(key, value string) Mutation {
	return func(b *builder) { b.headers[key] = value }
}

// RemoveHeader deletes a header.
func RemoveHeader(key string) Mutation {
	return func(b *builder) { delete(b.headers, key) }
}

// Headers gives direct access to the header map under construction.
func Headers(fn func(headers map[string]string)) Mutation {
	return func(b *builder) { fn(b.headers) }
}

// Claim sets a claim.
func Claim(key string, value any) Mutation {
	return func(b *builder) { b.claims[key] = CloneValue(value) }
}

// RemoveClaim deletes a claim. Removing "sub" is allowed and leaves the
// token without a subject.
func RemoveClaim(key string) Mutation {
	return func(b *builder) { delete(b.claims, key) }
}

// Claims gives direct access to the claim map under construction.
func Claims(fn func(claims map[string]any)) Mutation {
	return func(b *builder) { fn(b.claims) }
}

// Subject sets the "sub" claim.
func Subject(subject string) Mutation {
	return Claim(ClaimSubject, subject)
}

// Scope sets the "scope" claim to the space-joined scopes.
func Scope(scopes ...string) Mutation {
	return func(b *builder) { b.claims[ClaimScope] = strings.Join(scopes, " ") }
}

// RawValue sets the opaque bearer string.
func RawValue(raw string) Mutation {
	return func(b *builder) { b.rawValue = raw }
}

// Authorities replaces scope derivation with an explicit list. It never
// merges with derived authorities.
func Authorities(authorities ...string) Mutation {
	return func(b *builder) {
		b.authorities = slices.Clone(authorities)
		b.explicit = true
		b.converter = nil
	}
}

// WithConverter replaces scope derivation with a custom converter.
func WithConverter(c Converter) Mutation {
	return func(b *builder) {
		b.converter = c
		b.explicit = false
		b.authorities = nil
	}
}

// Prebuilt uses d as the token outright. Default filling, header and claim
// mutations and scope derivation are all skipped.
func Prebuilt(d Descriptor) Mutation {
	return func(b *builder) {
		c := New(d.rawValue, d.headers, d.claims)
		b.prebuilt = &c
	}
}
