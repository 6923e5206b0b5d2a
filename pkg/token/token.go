// Package token synthesizes mock bearer tokens.
//
// A [Descriptor] mirrors the shape of a signed JWT (header map, claim map,
// raw value) without any cryptographic material. [Synthesize] expands
// defaults, applies caller mutations and resolves the authority set the
// security pipeline will see. Everything here is a pure function of its
// inputs.
package token

import (
	"maps"
	"slices"
	"strings"
)

// Well-known header and claim names.
const (
	HeaderAlgorithm = "alg"
	HeaderType      = "typ"
	ClaimSubject    = "sub"
	ClaimScope      = "scope"
	ClaimScp        = "scp"
)

// Defaults used when no mutation overrides them.
const (
	DefaultAlgorithm = "none"
	DefaultSubject   = "user"
	DefaultScope     = "read"
	DefaultRawValue  = "token"

	// AuthorityPrefix is prepended to every scope-derived authority.
	AuthorityPrefix = "SCOPE_"
)

// Descriptor is the pre-serialization form of a bearer token.
type Descriptor struct {
	headers  map[string]string
	claims   map[string]any
	rawValue string
}

// New returns a fully specified descriptor. The maps are copied.
func New(rawValue string, headers map[string]string, claims map[string]any) Descriptor {
	return Descriptor{
		headers:  maps.Clone(headers),
		claims:   CloneMap(claims),
		rawValue: rawValue,
	}
}

// Default returns the descriptor produced by Synthesize with no mutations.
func Default() Descriptor {
	return New(DefaultRawValue,
		map[string]string{HeaderAlgorithm: DefaultAlgorithm},
		map[string]any{ClaimSubject: DefaultSubject, ClaimScope: DefaultScope},
	)
}

// Headers returns a copy of the header map.
func (d Descriptor) Headers() map[string]string {
	if d.headers == nil {
		return map[string]string{}
	}
	return maps.Clone(d.headers)
}

// Header returns a single header value.
func (d Descriptor) Header(key string) (string, bool) {
	v, ok := d.headers[key]
	return v, ok
}

// Claims returns a deep copy of the claim map.
func (d Descriptor) Claims() map[string]any {
	if d.claims == nil {
		return map[string]any{}
	}
	return CloneMap(d.claims)
}

// Claim returns a single claim value.
func (d Descriptor) Claim(key string) (any, bool) {
	v, ok := d.claims[key]
	if !ok {
		return nil, false
	}
	return CloneValue(v), true
}

// RawValue returns the opaque token string presented as the bearer credential.
func (d Descriptor) RawValue() string { return d.rawValue }

// Subject returns the "sub" claim. It reports false when the claim is
// absent or not a string.
func (d Descriptor) Subject() (string, bool) {
	s, ok := d.claims[ClaimSubject].(string)
	return s, ok
}

// Scopes returns the entries of the "scope" claim, or of "scp" when "scope"
// is absent. Both space-separated strings and arrays are accepted.
func (d Descriptor) Scopes() []string {
	if v, ok := d.claims[ClaimScope]; ok {
		return scopeValues(v)
	}
	if v, ok := d.claims[ClaimScp]; ok {
		return scopeValues(v)
	}
	return nil
}

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool {
	return d.headers == nil && d.claims == nil && d.rawValue == ""
}

func scopeValues(v any) []string {
	var out []string
	switch s := v.(type) {
	case string:
		out = strings.Fields(s)
	case []string:
		for _, item := range s {
			out = append(out, strings.Fields(item)...)
		}
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, strings.Fields(str)...)
			}
		}
	}
	return dedupe(out)
}

// dedupe removes repeated entries, keeping first-seen order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// CloneMap deep-copies m with CloneValue. A nil map stays nil.
func CloneMap(claims map[string]any) map[string]any {
	if claims == nil {
		return nil
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies the container types a JSON value can hold:
// []string, []any, map[string]any and map[string]string. Other values are
// returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		return CloneMap(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
