package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenValidator    = (*StaticValidator)(nil)
	_ ports.PasswordHasher    = PlainHasher{}
	_ ports.RefreshTokenStore = (*MemoryRefreshStore)(nil)
)

// StaticValidator accepts a fixed set of tokens.
type StaticValidator struct {
	ValidateFunc func(ctx context.Context, token string) (domainauth.Principal, error)

	// Tokens maps accepted bearer tokens to their principal.
	Tokens map[string]domainauth.Principal
	// Expired lists tokens that should be reported as expired.
	Expired map[string]bool
}

// NewStaticValidator creates an empty StaticValidator.
func NewStaticValidator() *StaticValidator {
	return &StaticValidator{
		Tokens:  make(map[string]domainauth.Principal),
		Expired: make(map[string]bool),
	}
}

func (v *StaticValidator) Validate(ctx context.Context, token string) (domainauth.Principal, error) {
	if v.ValidateFunc != nil {
		return v.ValidateFunc(ctx, token)
	}
	if v.Expired[token] {
		return domainauth.Principal{}, apperrors.TokenExpired("token has expired")
	}
	p, ok := v.Tokens[token]
	if !ok {
		return domainauth.Principal{}, apperrors.Unauthorized("invalid token")
	}
	return p, nil
}

// PlainHasher stores passwords with a visible prefix. Tests only.
type PlainHasher struct{}

const plainPrefix = "plain:"

func (PlainHasher) Hash(password string) (string, error) { return plainPrefix + password, nil }

func (PlainHasher) Compare(hash, password string) error {
	if !strings.HasPrefix(hash, plainPrefix) || hash[len(plainPrefix):] != password {
		return ErrMismatch
	}
	return nil
}

// ErrMismatch is returned by PlainHasher.Compare.
var ErrMismatch = errors.New("password mismatch")

// MemoryRefreshStore is a map-backed refresh token store with error injection.
type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]string

	// SaveErr and LookupErr, when set, are returned instead of touching the map.
	SaveErr   error
	LookupErr error
}

// NewMemoryRefreshStore creates an empty store.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: make(map[string]string)}
}

func (m *MemoryRefreshStore) Save(_ context.Context, tokenID, userID string, _ time.Duration) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if tokenID == "" {
		return errors.New("token id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenID] = userID
	return nil
}

func (m *MemoryRefreshStore) Lookup(_ context.Context, tokenID string) (string, error) {
	if m.LookupErr != nil {
		return "", m.LookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.tokens[tokenID]
	if !ok {
		return "", ports.ErrTokenNotFound
	}
	return owner, nil
}

func (m *MemoryRefreshStore) Delete(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenID)
	return nil
}

// Len reports how many tokens are live.
func (m *MemoryRefreshStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
