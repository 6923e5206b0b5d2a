// Package config provides unified configuration for the mockauth server
// and tools.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MOCKAUTH_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for mockauth.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`

	// Fixtures are named mock identities usable from tests, the token
	// CLI, and the opaque token table.
	Fixtures []FixtureConfig `yaml:"fixtures"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
}

// AuthConfig holds settings for the security pipeline.
type AuthConfig struct {
	Type string `yaml:"type"` // "none", "jwt" or "opaque", default: "none"

	// AcceptMockContext lets identities injected into the request context
	// by mockauth authenticate in-process requests. Default: true.
	AcceptMockContext bool `yaml:"accept_mock_context"`

	JWT             JWTConfig       `yaml:"jwt"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	BypassEndpoints []string        `yaml:"bypass_endpoints"` // default: /healthz, /readyz, /metrics
}

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	Issuer          string        `yaml:"issuer"`
	Audience        string        `yaml:"audience"`
	JWKSURL         string        `yaml:"jwks_url"`
	UserClaim       string        `yaml:"user_claim"`       // default: "sub"
	TenantClaim     string        `yaml:"tenant_claim"`     // default: "tenant_id"
	ScopesClaim     string        `yaml:"scopes_claim"`     // default: "scope"
	AuthorityPrefix string        `yaml:"authority_prefix"` // default: "SCOPE_"
	AllowUnsigned   bool          `yaml:"allow_unsigned"`
	CacheTTL        time.Duration `yaml:"cache_ttl"` // default: 1h
}

// RateLimitConfig holds per-tier request limits.
type RateLimitConfig struct {
	Enabled    bool           `yaml:"enabled"`
	DefaultRPM int            `yaml:"default_rpm"` // default: 600
	Tiers      map[string]int `yaml:"tiers"`       // tier -> requests per minute
}

// LoggingConfig holds log output settings. MOCKAUTH_LOG_LEVEL and
// MOCKAUTH_DEBUG take precedence when set.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR, TRACE; default: INFO
	Debug  string `yaml:"debug"`  // comma-separated categories or "all"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Fixture kinds.
const (
	FixtureUser   = "user"
	FixtureJWT    = "jwt"
	FixtureOpaque = "opaque"
)

// FixtureConfig describes one named mock identity.
type FixtureConfig struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"` // "user", "jwt" or "opaque", default: "jwt"

	// Subject is the principal name of a user fixture or the sub claim of
	// a token fixture.
	Subject string `yaml:"subject" json:"subject"`

	// Roles apply to user fixtures and become ROLE_ authorities.
	Roles []string `yaml:"roles" json:"roles"`

	// Scopes set the scope claim of token fixtures.
	Scopes []string `yaml:"scopes" json:"scopes"`

	// Authorities, when set, replace derived authorities verbatim.
	Authorities []string `yaml:"authorities" json:"authorities"`

	Headers      map[string]string `yaml:"headers" json:"headers"`
	Claims       map[string]any    `yaml:"claims" json:"claims"`
	Attributes   map[string]any    `yaml:"attributes" json:"attributes"`
	RawValue     string            `yaml:"raw_value" json:"raw_value"`
	RawValueFile string            `yaml:"raw_value_file" json:"raw_value_file"` // _file variant for raw_value
	TenantID     string            `yaml:"tenant_id" json:"tenant_id"`
	ServiceTier  string            `yaml:"service_tier" json:"service_tier"`
}

// EffectiveKind returns the fixture kind, defaulting to "jwt".
func (f FixtureConfig) EffectiveKind() string {
	if f.Kind == "" {
		return FixtureJWT
	}
	return f.Kind
}

// Fixture returns the fixture with the given name.
func (c *Config) Fixture(name string) (FixtureConfig, bool) {
	for _, f := range c.Fixtures {
		if f.Name == name {
			return f, true
		}
	}
	return FixtureConfig{}, false
}

// FixturesOfKind returns all fixtures of the given kind in declaration order.
func (c *Config) FixturesOfKind(kind string) []FixtureConfig {
	var out []FixtureConfig
	for _, f := range c.Fixtures {
		if f.EffectiveKind() == kind {
			out = append(out, f)
		}
	}
	return out
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			Type:              "none",
			AcceptMockContext: true,
			JWT: JWTConfig{
				UserClaim:       "sub",
				TenantClaim:     "tenant_id",
				ScopesClaim:     "scope",
				AuthorityPrefix: "SCOPE_",
				CacheTTL:        1 * time.Hour,
			},
			RateLimit: RateLimitConfig{
				DefaultRPM: 600,
			},
			BypassEndpoints: []string{"/healthz", "/readyz", "/metrics"},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
