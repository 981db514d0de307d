// Package jwtauth issues and validates HS256-signed access and refresh tokens.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

// LocalIssuer is the Principal.Issuer value for tokens minted by this package.
const LocalIssuer = "local"

const minSecretLen = 32

var (
	_ ports.TokenIssuer    = (*Tokens)(nil)
	_ ports.TokenValidator = (*Tokens)(nil)
)

// Config configures Tokens.
type Config struct {
	Secret     string
	Issuer     string // iss claim; defaults to "harvester"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time // Optional
}

type claims struct {
	Email     string               `json:"email,omitempty"`
	TokenType domainauth.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies locally signed tokens.
type Tokens struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// New validates cfg and constructs Tokens.
func New(cfg Config) (*Tokens, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes", minSecretLen)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "harvester"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Tokens{
		secret:     []byte(cfg.Secret),
		issuer:     issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
	}, nil
}

// Issue signs a new token of the requested type.
func (t *Tokens) Issue(in ports.IssueInput) (domainauth.IssuedToken, error) {
	var ttl time.Duration
	switch in.Type {
	case domainauth.TokenTypeAccess:
		ttl = t.accessTTL
	case domainauth.TokenTypeRefresh:
		ttl = t.refreshTTL
	default:
		return domainauth.IssuedToken{}, fmt.Errorf("unknown token type %q", in.Type)
	}
	if in.UserID == "" {
		return domainauth.IssuedToken{}, errors.New("user id is required")
	}

	now := t.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	c := claims{
		Email:     in.Email,
		TokenType: in.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.UserID,
			Issuer:    t.issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return domainauth.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domainauth.IssuedToken{Token: signed, TokenID: jti, ExpiresAt: exp}, nil
}

// Parse verifies signature, expiry and issuer, and checks the token type.
func (t *Tokens) Parse(token string, want domainauth.TokenType) (domainauth.TokenClaims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.TokenClaims{}, apperrors.TokenExpired("token has expired")
		}
		return domainauth.TokenClaims{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "invalid token")
	}
	if c.TokenType != want {
		return domainauth.TokenClaims{}, apperrors.Unauthorized(fmt.Sprintf("expected a %s token", want))
	}
	if c.Subject == "" || c.ID == "" {
		return domainauth.TokenClaims{}, apperrors.Unauthorized("token is missing required claims")
	}
	return domainauth.TokenClaims{
		UserID:    c.Subject,
		Email:     c.Email,
		TokenID:   c.ID,
		Type:      c.TokenType,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Validate accepts access tokens only.
func (t *Tokens) Validate(_ context.Context, token string) (domainauth.Principal, error) {
	c, err := t.Parse(token, domainauth.TokenTypeAccess)
	if err != nil {
		return domainauth.Principal{}, err
	}
	return domainauth.Principal{UserID: c.UserID, Email: c.Email, Issuer: LocalIssuer}, nil
}
