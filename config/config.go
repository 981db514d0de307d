package config

import (
	"errors"
	"fmt"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Token issuance, OIDC and lock-out configuration
//   - database.go: Store driver, database and Redis configuration
//   - http.go: HTTP server, CORS and rate limit configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Ownership selects the project access policy. There is no default; the
	// operator has to choose one explicitly.
	Ownership OwnershipPolicy `env:"OWNERSHIP_POLICY,required"`

	// Authentication configuration
	Auth AuthConfig

	// Storage configuration
	Store    StoreConfig
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// OwnershipPolicy names the project access policy.
type OwnershipPolicy string

const (
	// OwnershipOpen performs no ownership checks.
	OwnershipOpen OwnershipPolicy = "open"
	// OwnershipOwner restricts projects to the principal that created them.
	OwnershipOwner OwnershipPolicy = "owner"
)

// UnmarshalText implements encoding.TextUnmarshaler for OwnershipPolicy.
func (p *OwnershipPolicy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch OwnershipPolicy(v) {
	case OwnershipOpen, OwnershipOwner:
		*p = OwnershipPolicy(v)
		return nil
	default:
		return fmt.Errorf("invalid OwnershipPolicy: %q (valid options: open, owner)", v)
	}
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.HTTP.Sanitize()
	c.Postgres.Sanitize()
	c.Redis.Sanitize()
	c.Auth.Sanitize()
	c.Observability.Sanitize()
}

// Validate rejects combinations that cannot produce a working server.
// Call it after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.Ownership {
	case OwnershipOpen, OwnershipOwner:
	default:
		errs = append(errs, fmt.Errorf("OWNERSHIP_POLICY %q is not one of open, owner", c.Ownership))
	}
	if c.Store.Driver == StoreDriverPostgres && c.Postgres.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required when STORE_DRIVER=postgres"))
	}
	if c.Ownership == OwnershipOwner && !c.Auth.LocalEnabled() && !c.Auth.OIDCEnabled() {
		errs = append(errs, errors.New("OWNERSHIP_POLICY=owner needs AUTH_JWT_SECRET or AUTH_OIDC_ISSUER to identify owners"))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
