package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
)

// ErrTokenNotFound is returned by RefreshTokenStore.Lookup for unknown or revoked tokens.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenValidator resolves a bearer credential into a principal.
// Expired credentials return a TokenExpired error; anything else unusable returns Unauthorized.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (domainauth.Principal, error)
}

// IssueInput groups parameters for TokenIssuer.Issue.
type IssueInput struct {
	UserID string
	Email  string
	Type   domainauth.TokenType
}

// TokenIssuer mints and parses locally signed tokens.
type TokenIssuer interface {
	Issue(in IssueInput) (domainauth.IssuedToken, error)
	// Parse verifies signature and expiry and checks the token is of the wanted type.
	Parse(token string, want domainauth.TokenType) (domainauth.TokenClaims, error)
}

// RefreshTokenStore tracks live refresh tokens by their token id (jti).
type RefreshTokenStore interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	// Lookup returns the owning user id, or ErrTokenNotFound when revoked or expired.
	Lookup(ctx context.Context, tokenID string) (string, error)
	Delete(ctx context.Context, tokenID string) error
}

// LoginThrottle counts failed logins per account within a sliding window.
type LoginThrottle interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// OwnershipPolicy decides which projects a principal may see and change.
// A nil principal is anonymous.
type OwnershipPolicy interface {
	Name() string
	// OwnerForCreate returns the owner id to record on a new project.
	OwnerForCreate(p *domainauth.Principal) *string
	// ListOwnerFilter returns the owner id to filter project listings by, or nil for no filter.
	ListOwnerFilter(p *domainauth.Principal) *string
	// CanAccess reports whether the principal may read or modify the project.
	CanAccess(p *domainauth.Principal, project *model.Project) bool
}
