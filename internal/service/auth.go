package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/harvester-api/internal/core"
	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

// AuthCredentials groups the token and password collaborators of AuthService.
type AuthCredentials struct {
	Issuer  ports.TokenIssuer       // Required
	Refresh ports.RefreshTokenStore // Required: live refresh token ids
	Hasher  ports.PasswordHasher    // Required
}

// LockoutOptions configures failed-login lock-out. A nil Throttle or a
// non-positive MaxFailures disables it.
type LockoutOptions struct {
	Throttle    ports.LoginThrottle
	MaxFailures int
	Window      time.Duration
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users       core.UserRepository // Required
	Credentials AuthCredentials
	Lockout     LockoutOptions
	Logger      *slog.Logger // Optional
}

// AuthService issues, refreshes and revokes bearer tokens for local users.
type AuthService struct {
	users   core.UserRepository
	creds   AuthCredentials
	lockout LockoutOptions
	logger  *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Users == nil {
		panic("UserRepository is required")
	}
	if opts.Credentials.Issuer == nil || opts.Credentials.Refresh == nil || opts.Credentials.Hasher == nil {
		panic("token issuer, refresh store and password hasher are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:   opts.Users,
		creds:   opts.Credentials,
		lockout: opts.Lockout,
		logger:  logger.With("component", "auth_service"),
	}
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies an email/password pair and returns an access and refresh token.
// Unknown emails, inactive users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domainauth.TokenPair, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.InvalidCredentials()
	}
	if s.locked(ctx, email) {
		return nil, apperrors.Locked("account is locked after repeated failed logins; try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.recordFailure(ctx, email)
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.InvalidCredentials()
	}
	if err := s.creds.Hasher.Compare(user.PasswordHash, in.Password); err != nil {
		s.recordFailure(ctx, email)
		return nil, apperrors.InvalidCredentials()
	}
	s.resetFailures(ctx, email)

	access, err := s.creds.Issuer.Issue(ports.IssueInput{UserID: user.ID, Email: user.Email, Type: domainauth.TokenTypeAccess})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.creds.Issuer.Issue(ports.IssueInput{UserID: user.ID, Email: user.Email, Type: domainauth.TokenTypeRefresh})
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	ttl := time.Until(refresh.ExpiresAt)
	if err := s.creds.Refresh.Save(ctx, refresh.TokenID, user.ID, ttl); err != nil {
		return nil, apperrors.Unavailable("could not persist refresh token", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &domainauth.TokenPair{Access: access.Token, Refresh: refresh.Token}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domainauth.AccessToken, error) {
	claims, err := s.liveRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.InvalidRefreshToken(err)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.InvalidRefreshToken(errors.New("user is inactive"))
	}

	access, err := s.creds.Issuer.Issue(ports.IssueInput{UserID: user.ID, Email: user.Email, Type: domainauth.TokenTypeAccess})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &domainauth.AccessToken{Access: access.Token}, nil
}

// Revoke invalidates a refresh token. Revoking twice fails the second time.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.liveRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.creds.Refresh.Delete(ctx, claims.TokenID); err != nil {
		return apperrors.Unavailable("could not revoke refresh token", err)
	}
	s.logger.InfoContext(ctx, "refresh token revoked", "user_id", claims.UserID)
	return nil
}

func (s *AuthService) liveRefresh(ctx context.Context, token string) (domainauth.TokenClaims, error) {
	if token == "" {
		return domainauth.TokenClaims{}, apperrors.InvalidRefreshToken(errors.New("refresh token is required"))
	}
	claims, err := s.creds.Issuer.Parse(token, domainauth.TokenTypeRefresh)
	if err != nil {
		return domainauth.TokenClaims{}, apperrors.InvalidRefreshToken(err)
	}
	owner, err := s.creds.Refresh.Lookup(ctx, claims.TokenID)
	switch {
	case errors.Is(err, ports.ErrTokenNotFound):
		return domainauth.TokenClaims{}, apperrors.InvalidRefreshToken(err)
	case err != nil:
		return domainauth.TokenClaims{}, apperrors.Unavailable("could not check refresh token", err)
	case owner != claims.UserID:
		return domainauth.TokenClaims{}, apperrors.InvalidRefreshToken(errors.New("token owner mismatch"))
	}
	return claims, nil
}

// CreateUser hashes the password and stores a new active user.
func (s *AuthService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.creds.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	req.PasswordHash = hash
	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// DeactivateUser disables a user. Existing refresh tokens stop working because
// Refresh checks the account state.
func (s *AuthService) DeactivateUser(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.users.SetActive(ctx, user.ID, false); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

func (s *AuthService) lockoutEnabled() bool {
	return s.lockout.Throttle != nil && s.lockout.MaxFailures > 0
}

// Throttle failures are logged and ignored so a cache outage does not block logins.
func (s *AuthService) locked(ctx context.Context, key string) bool {
	if !s.lockoutEnabled() {
		return false
	}
	n, err := s.lockout.Throttle.Failures(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return false
	}
	return n >= s.lockout.MaxFailures
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if !s.lockoutEnabled() {
		return
	}
	n, err := s.lockout.Throttle.RecordFailure(ctx, key, s.lockout.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		return
	}
	if n >= s.lockout.MaxFailures {
		s.logger.WarnContext(ctx, "account locked after failed logins", "failures", n)
	}
}

func (s *AuthService) resetFailures(ctx context.Context, key string) {
	if !s.lockoutEnabled() {
		return
	}
	if err := s.lockout.Throttle.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login failures", "error", err)
	}
}
