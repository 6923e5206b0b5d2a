// Package jwt provides a JWT/OIDC authenticator that validates
// bearer tokens against a JWKS (JSON Web Key Set) endpoint.
//
// It supports RSA-signed JWTs with configurable issuer, audience,
// and claim extraction for subject, tenant, service tier and scopes.
// Test pipelines can opt into accepting unsigned ("alg": "none") tokens
// such as the ones produced by the token package.
package jwt

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/debug"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Issuer is the expected JWT issuer (iss claim). If empty, issuer is not validated.
	Issuer string

	// Audience is the expected JWT audience (aud claim). If empty, audience is not validated.
	Audience string

	// JWKSURL is the URL to fetch the JSON Web Key Set for signature verification.
	JWKSURL string

	// UserClaim is the JWT claim used as the identity subject. Default: "sub".
	UserClaim string

	// TenantClaim is the JWT claim used for the tenant_id metadata. Default: "tenant_id".
	TenantClaim string

	// TierClaim is the JWT claim used as the service tier. Default: "service_tier".
	TierClaim string

	// ScopesClaim is the JWT claim used for authorization scopes. Default: "scope".
	// The value can be a space-separated string or a JSON array.
	ScopesClaim string

	// AuthorityPrefix is prepended to every scope to form an authority.
	// Default: "SCOPE_".
	AuthorityPrefix string

	// AllowUnsigned accepts tokens with "alg": "none". Never enable this
	// outside of tests.
	AllowUnsigned bool

	// CacheTTL controls how long JWKS keys are cached. Default: 1 hour.
	CacheTTL time.Duration

	// CacheSize bounds the number of cached keys. Default: 128.
	CacheSize int64

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "sub"
	}
	if c.TenantClaim == "" {
		c.TenantClaim = "tenant_id"
	}
	if c.TierClaim == "" {
		c.TierClaim = "service_tier"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.AuthorityPrefix == "" {
		c.AuthorityPrefix = "SCOPE_"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 1 * time.Hour
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 128
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// Authenticator validates JWT bearer tokens against a JWKS endpoint.
type Authenticator struct {
	config    Config
	jwksCache *jwksCache
}

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) (*Authenticator, error) {
	cfg.applyDefaults()

	keys, err := ristretto.NewCache(&ristretto.Config[string, *rsa.PublicKey]{
		NumCounters: cfg.CacheSize * 10,
		MaxCost:     cfg.CacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating JWKS cache: %w", err)
	}

	return &Authenticator{
		config: cfg,
		jwksCache: &jwksCache{
			keys:    keys,
			ttl:     cfg.CacheTTL,
			jwksURL: cfg.JWKSURL,
			client:  cfg.HTTPClient,
		},
	}, nil
}

// Close releases the key cache.
func (a *Authenticator) Close() {
	a.jwksCache.keys.Close()
}

// Authenticate extracts a bearer token from the Authorization header,
// validates it as a JWT, and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid (expired, wrong issuer, bad signature, etc.)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("empty bearer token"),
		}
	}

	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (any, error) {
		if token.Method == jwtlib.SigningMethodNone {
			if !a.config.AllowUnsigned {
				return nil, fmt.Errorf("unsigned tokens are not accepted")
			}
			return jwtlib.UnsafeAllowNoneSignatureType, nil
		}

		if _, ok := token.Method.(*jwtlib.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}

		key, fetchErr := a.jwksCache.getKey(ctx, kid)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetching JWKS key for kid %q: %w", kid, fetchErr)
		}

		return key, nil
	}, a.parserOptions()...)
	if err != nil {
		debug.Log("auth", "JWT validation failed", "error", err)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid JWT: %w", err),
		}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid JWT claims"),
		}
	}

	id := a.identityFromClaims(claims)
	if id.Subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("JWT missing %q claim", a.config.UserClaim),
		}
	}

	return auth.AuthResult{Decision: auth.Yes, Identity: id}
}

// identityFromClaims maps validated claims onto an identity using the
// configured claim names. Each scope yields one prefixed authority.
func (a *Authenticator) identityFromClaims(claims jwtlib.MapClaims) *auth.Identity {
	id := &auth.Identity{
		Subject:     claimString(claims, a.config.UserClaim),
		ServiceTier: claimString(claims, a.config.TierClaim),
		Scopes:      extractScopes(claims, a.config.ScopesClaim),
		Metadata:    make(map[string]string),
	}
	if tenant := claimString(claims, a.config.TenantClaim); tenant != "" {
		id.Metadata["tenant_id"] = tenant
	}
	if len(id.Scopes) > 0 {
		id.Authorities = make([]string, len(id.Scopes))
		for i, s := range id.Scopes {
			id.Authorities[i] = a.config.AuthorityPrefix + s
		}
	}
	return id
}

// parserOptions builds JWT parser options based on the configuration.
func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	methods := []string{"RS256", "RS384", "RS512"}
	if a.config.AllowUnsigned {
		methods = append(methods, jwtlib.SigningMethodNone.Alg())
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(methods),
	}

	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}

	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}

	return opts
}

// claimString extracts a string value from JWT claims.
// Returns empty string if the claim is missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// scpClaim is read for scopes when the configured scopes claim is absent.
const scpClaim = "scp"

// extractScopes extracts scopes from JWT claims, falling back to "scp"
// when key is absent. The value can be a space-separated string or a JSON
// array whose entries may themselves be space-separated.
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	val, ok := claims[key]
	if !ok {
		val = claims[scpClaim]
	}

	var scopes []string
	switch v := val.(type) {
	case string:
		scopes = strings.Fields(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, strings.Fields(s)...)
			}
		}
	}
	if len(scopes) == 0 {
		return nil
	}
	return scopes
}
