package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rhuss/mockauth/pkg/debug"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, MOCKAUTH_CONFIG env, ./mockauth.yaml, /etc/mockauth/mockauth.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "config file loaded", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	debug.Log("config", "config loaded",
		"auth_type", cfg.Auth.Type,
		"port", cfg.Server.Port,
		"fixtures", len(cfg.Fixtures),
	)
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. MOCKAUTH_CONFIG environment variable
// 3. ./mockauth.yaml in the current directory
// 4. /etc/mockauth/mockauth.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("MOCKAUTH_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"mockauth.yaml",
		"/etc/mockauth/mockauth.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps MOCKAUTH_* environment variables to config fields.
// Malformed numeric or JSON values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MOCKAUTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOCKAUTH_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MOCKAUTH_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("MOCKAUTH_JWT_ISSUER"); v != "" {
		cfg.Auth.JWT.Issuer = v
	}
	if v := os.Getenv("MOCKAUTH_JWT_AUDIENCE"); v != "" {
		cfg.Auth.JWT.Audience = v
	}
	if v := os.Getenv("MOCKAUTH_JWKS_URL"); v != "" {
		cfg.Auth.JWT.JWKSURL = v
	}
	if v := os.Getenv("MOCKAUTH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// MOCKAUTH_FIXTURES: JSON array of fixtures, replacing the file's list.
	if v := os.Getenv("MOCKAUTH_FIXTURES"); v != "" {
		fixtures, err := parseFixturesJSON(v)
		if err != nil {
			return err
		}
		cfg.Fixtures = fixtures
	}

	return nil
}

// parseFixturesJSON parses a JSON array of fixture configurations.
func parseFixturesJSON(jsonStr string) ([]FixtureConfig, error) {
	var fixtures []FixtureConfig
	if err := json.Unmarshal([]byte(jsonStr), &fixtures); err != nil {
		return nil, fmt.Errorf("parsing MOCKAUTH_FIXTURES: %w", err)
	}
	return fixtures, nil
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields when those are empty.
func resolveFileReferences(cfg *Config) error {
	for i := range cfg.Fixtures {
		f := &cfg.Fixtures[i]
		if f.RawValueFile != "" && f.RawValue == "" {
			val, err := readSecretFile(f.RawValueFile)
			if err != nil {
				return fmt.Errorf("fixtures[%d].raw_value_file: %w", i, err)
			}
			f.RawValue = val
		}
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
