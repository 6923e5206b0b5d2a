package server

import (
	"fmt"

	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/auth/jwt"
	"github.com/rhuss/mockauth/pkg/auth/opaque"
	"github.com/rhuss/mockauth/pkg/config"
	"github.com/rhuss/mockauth/pkg/mockauth"
)

// pipeline is the configured authentication chain plus the resources it
// owns.
type pipeline struct {
	chain   *auth.AuthChain
	limiter auth.RateLimiter
	closers []func()
}

func (p *pipeline) close() {
	for _, c := range p.closers {
		c()
	}
}

// buildPipeline creates the auth chain for cfg. Mock identities from the
// request context are consulted first when accepted, then the configured
// authenticator. extra authenticators run last.
func buildPipeline(cfg config.AuthConfig, fixtures []config.FixtureConfig, extra []auth.Authenticator) (*pipeline, error) {
	p := &pipeline{chain: &auth.AuthChain{DefaultDecision: auth.No}}

	if cfg.AcceptMockContext {
		p.chain.Authenticators = append(p.chain.Authenticators, mockauth.Authenticator{})
	}

	switch cfg.Type {
	case "", "none":
		p.chain.DefaultDecision = auth.Yes
	case "jwt":
		a, err := jwt.New(jwt.Config{
			Issuer:          cfg.JWT.Issuer,
			Audience:        cfg.JWT.Audience,
			JWKSURL:         cfg.JWT.JWKSURL,
			UserClaim:       cfg.JWT.UserClaim,
			TenantClaim:     cfg.JWT.TenantClaim,
			ScopesClaim:     cfg.JWT.ScopesClaim,
			AuthorityPrefix: cfg.JWT.AuthorityPrefix,
			AllowUnsigned:   cfg.JWT.AllowUnsigned,
			CacheTTL:        cfg.JWT.CacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating JWT authenticator: %w", err)
		}
		p.chain.Authenticators = append(p.chain.Authenticators, a)
		p.closers = append(p.closers, a.Close)
	case "opaque":
		entries, err := opaqueEntries(fixtures)
		if err != nil {
			return nil, err
		}
		p.chain.Authenticators = append(p.chain.Authenticators, opaque.New(entries))
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	p.chain.Authenticators = append(p.chain.Authenticators, extra...)

	if cfg.RateLimit.Enabled {
		tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
		for name, rpm := range cfg.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		p.limiter = auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM)
	}

	return p, nil
}

// opaqueEntries turns the opaque fixtures into the token table. Each entry
// introspects to the identity the fixture's mock authentication maps to.
func opaqueEntries(fixtures []config.FixtureConfig) ([]opaque.Entry, error) {
	var entries []opaque.Entry
	for _, f := range fixtures {
		if f.EffectiveKind() != config.FixtureOpaque {
			continue
		}
		h, err := mockauth.FromFixture(f)
		if err != nil {
			return nil, err
		}
		a, err := h.Synthesize()
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", f.Name, err)
		}
		name, ok := a.Principal()
		if !ok {
			return nil, fmt.Errorf("fixture %q: opaque token has no subject", f.Name)
		}
		entries = append(entries, opaque.Entry{
			Token:    a.RawCredential(),
			Identity: *mockauth.ToIdentity(name, a),
		})
	}
	return entries, nil
}
