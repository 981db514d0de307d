package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/adapters/authchain"
	"github.com/target/harvester-api/internal/adapters/jwtauth"
	"github.com/target/harvester-api/internal/adapters/oidc"
	"github.com/target/harvester-api/internal/adapters/password"
	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/ports"
	"github.com/target/harvester-api/internal/service"
)

// AuthDeps contains the inputs for building the auth gate.
type AuthDeps struct {
	Auth   config.AuthConfig
	Users  core.UserRepository
	Tokens tokenBackends
	Logger *slog.Logger
}

// AuthGate is the assembled token machinery.
type AuthGate struct {
	// Service is nil when local token issuance is disabled.
	Service *service.AuthService
	// Validator accepts every configured token source.
	Validator ports.TokenValidator
}

// BuildAuth assembles local JWT issuance and/or OIDC validation according to
// cfg. At least one source must be configured.
func BuildAuth(ctx context.Context, deps AuthDeps) (AuthGate, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var (
		gate       AuthGate
		validators []ports.TokenValidator
	)

	if deps.Auth.LocalEnabled() {
		tokens, err := jwtauth.New(jwtauth.Config{
			Secret:     deps.Auth.JWT.Secret,
			Issuer:     deps.Auth.JWT.Issuer,
			AccessTTL:  deps.Auth.JWT.AccessTTL,
			RefreshTTL: deps.Auth.JWT.RefreshTTL,
		})
		if err != nil {
			return AuthGate{}, fmt.Errorf("local tokens: %w", err)
		}
		if deps.Users == nil || deps.Tokens.Refresh == nil {
			return AuthGate{}, errors.New("local tokens need a user repository and refresh token store")
		}
		gate.Service = service.NewAuthService(service.AuthServiceOptions{
			Users: deps.Users,
			Credentials: service.AuthCredentials{
				Issuer:  tokens,
				Refresh: deps.Tokens.Refresh,
				Hasher:  password.NewBcrypt(deps.Auth.BcryptCost),
			},
			Lockout: service.LockoutOptions{
				Throttle:    deps.Tokens.Throttle,
				MaxFailures: deps.Auth.MaxLoginFailures,
				Window:      deps.Auth.LockoutWindow,
			},
			Logger: logger,
		})
		validators = append(validators, tokens)
	}

	if deps.Auth.OIDCEnabled() {
		v, err := oidc.NewValidator(ctx, oidc.Config{
			IssuerURL: deps.Auth.OIDC.Issuer,
			Audience:  deps.Auth.OIDC.Audience,
		})
		if err != nil {
			return AuthGate{}, fmt.Errorf("oidc validator: %w", err)
		}
		logger.InfoContext(ctx, "oidc token validation enabled", "issuer", v.Issuer())
		validators = append(validators, v)
	}

	if len(validators) == 0 {
		return AuthGate{}, errors.New("no token source configured")
	}
	gate.Validator = authchain.New(validators...)
	return gate, nil
}

// NewUserAdmin builds an AuthService for offline user management. It never
// issues tokens that outlive the process, so refresh state stays in memory.
func NewUserAdmin(users core.UserRepository, auth config.AuthConfig, logger *slog.Logger) (*service.AuthService, error) {
	if !auth.LocalEnabled() {
		return nil, errors.New("local users are unused unless AUTH_JWT_SECRET is set")
	}
	auth.OIDC = config.OIDCConfig{}
	gate, err := BuildAuth(context.Background(), AuthDeps{
		Auth:   auth,
		Users:  users,
		Tokens: buildTokenBackends(nil),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return gate.Service, nil
}
