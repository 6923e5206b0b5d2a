package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Defaults(t *testing.T) {
	r := Synthesize()

	assert.Equal(t, "token", r.Token.RawValue())
	assert.Equal(t, map[string]string{"alg": "none"}, r.Token.Headers())
	assert.Equal(t, map[string]any{"sub": "user", "scope": "read"}, r.Token.Claims())
	assert.Equal(t, []string{"SCOPE_read"}, r.Authorities)
}

func TestSynthesize_ScopeDerivation(t *testing.T) {
	tests := []struct {
		name      string
		mutations []Mutation
		want      []string
	}{
		{
			"space separated scope",
			[]Mutation{Claim("scope", "read write")},
			[]string{"SCOPE_read", "SCOPE_write"},
		},
		{
			"scp used when scope is absent",
			[]Mutation{RemoveClaim("scope"), Claim("scp", "message:read")},
			[]string{"SCOPE_message:read"},
		},
		{
			"scope preferred over scp",
			[]Mutation{Claim("scope", "a"), Claim("scp", "b")},
			[]string{"SCOPE_a"},
		},
		{
			"array valued scope",
			[]Mutation{Claim("scope", []any{"read", "admin"})},
			[]string{"SCOPE_read", "SCOPE_admin"},
		},
		{
			"string slice scope",
			[]Mutation{Claim("scope", []string{"x", "y"})},
			[]string{"SCOPE_x", "SCOPE_y"},
		},
		{
			"duplicates collapse",
			[]Mutation{Scope("read", "read", "write")},
			[]string{"SCOPE_read", "SCOPE_write"},
		},
		{
			"no scope claims",
			[]Mutation{RemoveClaim("scope")},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Synthesize(tt.mutations...)
			assert.Equal(t, tt.want, r.Authorities)
		})
	}
}

func TestSynthesize_ExplicitAuthoritiesReplaceDerived(t *testing.T) {
	r := Synthesize(
		Claim("scope", "read write"),
		Authorities("ROLE_ADMIN", "message:write"),
	)

	assert.ElementsMatch(t, []string{"ROLE_ADMIN", "message:write"}, r.Authorities)
	assert.False(t, r.HasAuthority("SCOPE_read"), "explicit authorities must not merge with derived scopes")
}

func TestSynthesize_EmptyExplicitAuthorities(t *testing.T) {
	r := Synthesize(Authorities())
	assert.Empty(t, r.Authorities)
}

func TestSynthesize_Converter(t *testing.T) {
	upper := func(d Descriptor) []string {
		var out []string
		for _, s := range d.Scopes() {
			out = append(out, strings.ToUpper(s))
		}
		return out
	}

	r := Synthesize(Scope("read", "write"), WithConverter(upper))
	assert.Equal(t, []string{"READ", "WRITE"}, r.Authorities)
}

func TestSynthesize_LastAuthorityOverrideWins(t *testing.T) {
	constant := func(Descriptor) []string { return []string{"from-converter"} }

	r := Synthesize(Authorities("explicit"), WithConverter(constant))
	assert.Equal(t, []string{"from-converter"}, r.Authorities)

	r = Synthesize(WithConverter(constant), Authorities("explicit"))
	assert.Equal(t, []string{"explicit"}, r.Authorities)
}

func TestSynthesize_LastWriteWins(t *testing.T) {
	r := Synthesize(
		Header("kid", "one"),
		Header("kid", "two"),
		Subject("alice"),
		Claim("sub", "bob"),
		RawValue("first"),
		RawValue("second"),
	)

	kid, ok := r.Token.Header("kid")
	require.True(t, ok)
	assert.Equal(t, "two", kid)

	sub, ok := r.Token.Subject()
	require.True(t, ok)
	assert.Equal(t, "bob", sub)
	assert.Equal(t, "second", r.Token.RawValue())
}

func TestSynthesize_RemoveSubjectIsNotAnError(t *testing.T) {
	r := Synthesize(RemoveClaim("sub"))

	sub, ok := r.Token.Subject()
	assert.False(t, ok)
	assert.Empty(t, sub)
	assert.Equal(t, []string{"SCOPE_read"}, r.Authorities)
}

func TestSynthesize_HeadersAndClaimsFuncs(t *testing.T) {
	r := Synthesize(
		Headers(func(h map[string]string) {
			h["kid"] = "k1"
			delete(h, "alg")
		}),
		Claims(func(c map[string]any) {
			c["iss"] = "https://issuer.example.com"
		}),
	)

	assert.Equal(t, map[string]string{"kid": "k1"}, r.Token.Headers())
	iss, ok := r.Token.Claim("iss")
	require.True(t, ok)
	assert.Equal(t, "https://issuer.example.com", iss)
}

func TestSynthesize_PrebuiltBypassesEverything(t *testing.T) {
	prebuilt := New("prebuilt-raw",
		map[string]string{"alg": "RS256", "kid": "k"},
		map[string]any{"sub": "svc", "scope": "admin"},
	)

	r := Synthesize(
		Header("kid", "ignored"),
		Prebuilt(prebuilt),
		Claim("sub", "also-ignored"),
	)

	assert.Equal(t, "prebuilt-raw", r.Token.RawValue())
	assert.Equal(t, map[string]string{"alg": "RS256", "kid": "k"}, r.Token.Headers())
	assert.Equal(t, map[string]any{"sub": "svc", "scope": "admin"}, r.Token.Claims())
	assert.Empty(t, r.Authorities, "prebuilt tokens skip scope derivation")
}

func TestSynthesize_PrebuiltWithExplicitAuthorities(t *testing.T) {
	r := Synthesize(Prebuilt(Default()), Authorities("ROLE_SVC"))
	assert.Equal(t, []string{"ROLE_SVC"}, r.Authorities)
}

func TestSynthesize_DoesNotAliasCallerValues(t *testing.T) {
	aud := []string{"api"}
	r := Synthesize(Claim("aud", aud))
	aud[0] = "changed"

	got, _ := r.Token.Claim("aud")
	assert.Equal(t, []string{"api"}, got)

	claims := r.Token.Claims()
	claims["sub"] = "mutated"
	sub, _ := r.Token.Subject()
	assert.Equal(t, "user", sub)
}

func TestSynthesize_Deterministic(t *testing.T) {
	a := Synthesize(Scope("read", "write"), Header("kid", "1"))
	b := Synthesize(Scope("read", "write"), Header("kid", "1"))
	assert.Equal(t, a, b)
}

func TestSynthesizeOpaque(t *testing.T) {
	r := SynthesizeOpaque(Claim("scope", "read write"))

	assert.Empty(t, r.Token.Headers())
	assert.Equal(t, "token", r.Token.RawValue())
	assert.Equal(t, []string{"SCOPE_read", "SCOPE_write"}, r.Authorities)
}

func TestNilMutationIgnored(t *testing.T) {
	assert.Equal(t, Synthesize(), Synthesize(nil))
}
