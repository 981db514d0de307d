package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const minJWTSecretLen = 32

// AuthConfig groups all authentication-related configuration.
//
// Two bearer token sources are supported and may be combined: tokens minted
// locally by POST /api/auth/token (enabled by AUTH_JWT_SECRET) and tokens
// issued by an external OpenID Connect provider (enabled by AUTH_OIDC_ISSUER).
type AuthConfig struct {
	JWT  JWTConfig  `envPrefix:"AUTH_JWT_"`
	OIDC OIDCConfig `envPrefix:"AUTH_OIDC_"`

	// MaxLoginFailures within LockoutWindow locks an email out. Zero disables lock-out.
	MaxLoginFailures int           `env:"AUTH_MAX_LOGIN_FAILURES" envDefault:"5"`
	LockoutWindow    time.Duration `env:"AUTH_LOCKOUT_WINDOW"     envDefault:"15m"`

	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// JWTConfig controls locally issued HS256 tokens.
type JWTConfig struct {
	Secret     string        `env:"SECRET"`
	Issuer     string        `env:"ISSUER"      envDefault:"harvester"`
	AccessTTL  time.Duration `env:"ACCESS_TTL"  envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
}

// OIDCConfig configures validation of externally issued tokens.
type OIDCConfig struct {
	Issuer   string `env:"ISSUER"`
	Audience string `env:"AUDIENCE"`
}

// Sanitize normalises auth values.
func (c *AuthConfig) Sanitize() {
	c.JWT.Issuer = strings.TrimSpace(c.JWT.Issuer)
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "harvester"
	}
	c.OIDC.Issuer = strings.TrimSpace(c.OIDC.Issuer)
	c.OIDC.Audience = strings.TrimSpace(c.OIDC.Audience)
	if c.MaxLoginFailures < 0 {
		c.MaxLoginFailures = 0
	}
	if c.LockoutWindow <= 0 {
		c.LockoutWindow = 15 * time.Minute
	}
	// bcrypt accepts 4..31; anything outside falls back to the library default.
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		c.BcryptCost = 10
	}
}

// LocalEnabled reports whether this server mints its own tokens.
func (c AuthConfig) LocalEnabled() bool { return c.JWT.Secret != "" }

// OIDCEnabled reports whether externally issued tokens are accepted.
func (c AuthConfig) OIDCEnabled() bool { return c.OIDC.Issuer != "" }

// Validate checks auth settings that Sanitize cannot repair.
func (c AuthConfig) Validate() error {
	var errs []error
	if c.LocalEnabled() {
		if len(c.JWT.Secret) < minJWTSecretLen {
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minJWTSecretLen))
		}
		if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
			errs = append(errs, errors.New("AUTH_JWT_ACCESS_TTL and AUTH_JWT_REFRESH_TTL must be positive"))
		}
	}
	if c.OIDCEnabled() && c.OIDC.Audience == "" {
		errs = append(errs, errors.New("AUTH_OIDC_AUDIENCE is required when AUTH_OIDC_ISSUER is set"))
	}
	if !c.LocalEnabled() && !c.OIDCEnabled() {
		errs = append(errs, errors.New("no token source configured: set AUTH_JWT_SECRET and/or AUTH_OIDC_ISSUER"))
	}
	return errors.Join(errs...)
}
