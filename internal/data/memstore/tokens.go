package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/target/harvester-api/internal/ports"
)

var (
	_ ports.RefreshTokenStore = (*RefreshTokens)(nil)
	_ ports.LoginThrottle     = (*LoginThrottle)(nil)
)

type expiring struct {
	value     string
	count     int
	expiresAt time.Time
}

// RefreshTokens is an in-process refresh token store. Expired entries are
// dropped lazily on access.
type RefreshTokens struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]expiring
}

// NewRefreshTokens constructs an empty RefreshTokens.
func NewRefreshTokens(now func() time.Time) *RefreshTokens {
	if now == nil {
		now = time.Now
	}
	return &RefreshTokens{now: now, entries: make(map[string]expiring)}
}

// Save records a live token id.
func (s *RefreshTokens) Save(_ context.Context, tokenID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = expiring{value: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns the user that owns a live token id.
func (s *RefreshTokens) Lookup(_ context.Context, tokenID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tokenID]
	if !ok {
		return "", ports.ErrTokenNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, tokenID)
		return "", ports.ErrTokenNotFound
	}
	return e.value, nil
}

// Delete revokes a token id.
func (s *RefreshTokens) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenID)
	return nil
}

// LoginThrottle counts failed logins in fixed windows that start at the first failure.
type LoginThrottle struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]expiring
}

// NewLoginThrottle constructs an empty LoginThrottle.
func NewLoginThrottle(now func() time.Time) *LoginThrottle {
	if now == nil {
		now = time.Now
	}
	return &LoginThrottle{now: now, entries: make(map[string]expiring)}
}

// Failures returns the failure count in the current window.
func (t *LoginThrottle) Failures(_ context.Context, key string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live(key).count, nil
}

// RecordFailure increments the failure count, opening a new window if needed.
func (t *LoginThrottle) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.live(key)
	if e.count == 0 {
		e.expiresAt = t.now().Add(window)
	}
	e.count++
	t.entries[key] = e
	return e.count, nil
}

// Reset clears the failure count.
func (t *LoginThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

func (t *LoginThrottle) live(key string) expiring {
	e, ok := t.entries[key]
	if !ok {
		return expiring{}
	}
	if !t.now().Before(e.expiresAt) {
		delete(t.entries, key)
		return expiring{}
	}
	return e
}
