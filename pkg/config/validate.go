package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Auth.Type {
	case "none", "opaque":
	case "jwt":
		if c.Auth.JWT.JWKSURL == "" && !c.Auth.JWT.AllowUnsigned {
			errs = append(errs, fmt.Errorf("auth.jwt.jwks_url is required when auth.type is \"jwt\" unless auth.jwt.allow_unsigned is set"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"jwt\", or \"opaque\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "opaque" && len(c.FixturesOfKind(FixtureOpaque)) == 0 {
		errs = append(errs, fmt.Errorf("auth.type \"opaque\" requires at least one fixture of kind \"opaque\""))
	}

	if c.Auth.RateLimit.Enabled && c.Auth.RateLimit.DefaultRPM < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.default_rpm must be >= 0, got %d", c.Auth.RateLimit.DefaultRPM))
	}

	switch c.Logging.Format {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	seen := make(map[string]bool, len(c.Fixtures))
	for i, f := range c.Fixtures {
		errs = append(errs, validateFixture(i, f)...)
		if f.Name != "" {
			if seen[f.Name] {
				errs = append(errs, fmt.Errorf("fixtures[%d].name %q is duplicated", i, f.Name))
			}
			seen[f.Name] = true
		}
	}

	return errors.Join(errs...)
}

func validateFixture(i int, f FixtureConfig) []error {
	var errs []error

	if f.Name == "" {
		errs = append(errs, fmt.Errorf("fixtures[%d].name is required", i))
	}

	switch f.EffectiveKind() {
	case FixtureUser:
		for _, r := range f.Roles {
			if r == "" || strings.HasPrefix(r, "ROLE_") {
				errs = append(errs, fmt.Errorf("fixtures[%d].roles: %q must be non-empty and must not start with ROLE_", i, r))
			}
		}
	case FixtureJWT:
	case FixtureOpaque:
		if f.RawValue == "" && f.RawValueFile == "" {
			errs = append(errs, fmt.Errorf("fixtures[%d].raw_value or raw_value_file is required for kind \"opaque\"", i))
		}
	default:
		errs = append(errs, fmt.Errorf("fixtures[%d].kind must be \"user\", \"jwt\", or \"opaque\", got %q", i, f.Kind))
	}

	return errs
}
