package mockauth

import (
	"fmt"

	"github.com/rhuss/mockauth/pkg/api"
	"github.com/rhuss/mockauth/pkg/config"
	"github.com/rhuss/mockauth/pkg/identity"
	"github.com/rhuss/mockauth/pkg/token"
)

// FromFixture returns a handle for a configured fixture.
func FromFixture(f config.FixtureConfig) (*Handle, error) {
	switch f.EffectiveKind() {
	case config.FixtureUser:
		d, err := fixtureIdentity(f)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
		}
		return User(d), nil
	case config.FixtureJWT:
		return JWT(FixtureMutations(f)...), nil
	case config.FixtureOpaque:
		return OpaqueToken(FixtureMutations(f)...), nil
	default:
		return nil, api.NewValidationError("kind", fmt.Sprintf("fixture %q has unknown kind %q", f.Name, f.Kind))
	}
}

// FixtureMutations translates a token fixture into synthesis mutations.
func FixtureMutations(f config.FixtureConfig) []token.Mutation {
	var muts []token.Mutation
	for k, v := range f.Headers {
		muts = append(muts, token.Header(k, v))
	}
	for k, v := range f.Claims {
		muts = append(muts, token.Claim(k, v))
	}
	if f.Subject != "" {
		muts = append(muts, token.Subject(f.Subject))
	}
	if len(f.Scopes) > 0 {
		muts = append(muts, token.Scope(f.Scopes...))
	}
	if f.TenantID != "" {
		muts = append(muts, token.Claim(AttributeTenant, f.TenantID))
	}
	if f.ServiceTier != "" {
		muts = append(muts, token.Claim(AttributeServiceTier, f.ServiceTier))
	}
	if f.RawValue != "" {
		muts = append(muts, token.RawValue(f.RawValue))
	}
	if len(f.Authorities) > 0 {
		muts = append(muts, token.Authorities(f.Authorities...))
	}
	return muts
}

func fixtureIdentity(f config.FixtureConfig) (identity.Descriptor, error) {
	name := f.Subject
	if name == "" {
		name = identity.DefaultUsername
	}
	d, err := identity.WithUser(name, f.Roles...)
	if err != nil {
		return identity.Descriptor{}, err
	}
	if len(f.Authorities) > 0 {
		d = d.WithAuthorities(f.Authorities...)
	}
	for k, v := range f.Attributes {
		d = d.WithAttribute(k, v)
	}
	if f.TenantID != "" {
		d = d.WithAttribute(AttributeTenant, f.TenantID)
	}
	if f.ServiceTier != "" {
		d = d.WithAttribute(AttributeServiceTier, f.ServiceTier)
	}
	return d, nil
}
