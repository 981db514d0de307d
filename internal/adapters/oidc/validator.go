// Package oidc validates bearer tokens issued by an external OpenID Connect provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

var _ ports.TokenValidator = (*Validator)(nil)

// Config holds configuration for the OIDC validator.
type Config struct {
	IssuerURL  string
	Audience   string       // expected aud claim (client id)
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// Validator verifies OIDC bearer tokens against the issuer's published keys.
type Validator struct {
	issuer   string
	verifier *gooidc.IDTokenVerifier
	client   *http.Client
}

type tokenClaims struct {
	Email string `json:"email"`
	Mail  string `json:"mail"`
}

// NewValidator performs discovery against cfg.IssuerURL and builds a verifier.
func NewValidator(ctx context.Context, cfg Config) (*Validator, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	provider, err := gooidc.NewProvider(withClient(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &Validator{
		issuer:   issuer,
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.Audience}),
		client:   client,
	}, nil
}

// Validate verifies the token and maps its claims to a Principal.
func (v *Validator) Validate(ctx context.Context, token string) (domainauth.Principal, error) {
	if token == "" {
		return domainauth.Principal{}, apperrors.Unauthorized("missing bearer token")
	}
	idTok, err := v.verifier.Verify(withClient(ctx, v.client), token)
	if err != nil {
		var expired *gooidc.TokenExpiredError
		if errors.As(err, &expired) {
			return domainauth.Principal{}, apperrors.TokenExpired("token has expired")
		}
		return domainauth.Principal{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "invalid token")
	}
	var c tokenClaims
	if err := idTok.Claims(&c); err != nil {
		return domainauth.Principal{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "invalid token claims")
	}
	email := c.Email
	if email == "" {
		email = c.Mail
	}
	return domainauth.Principal{UserID: idTok.Subject, Email: email, Issuer: idTok.Issuer}, nil
}

// Issuer reports the discovered issuer URL.
func (v *Validator) Issuer() string { return v.issuer }

func withClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
