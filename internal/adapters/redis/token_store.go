// Package redis provides Redis-backed adapters for refresh tokens and login throttling.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

const (
	defaultRefreshPrefix  = "harvester:refresh:"
	defaultThrottlePrefix = "harvester:login_failures:"
)

var (
	_ ports.RefreshTokenStore = (*RefreshTokenStore)(nil)
	_ ports.LoginThrottle     = (*LoginThrottle)(nil)
)

// RefreshTokenStore keeps live refresh token ids as keys that expire with the token.
type RefreshTokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRefreshTokenStore creates a Redis-backed refresh token store.
func NewRefreshTokenStore(client redis.UniversalClient) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, prefix: defaultRefreshPrefix}
}

// NewRefreshTokenStoreWithPrefix creates a store with a custom key prefix.
func NewRefreshTokenStoreWithPrefix(client redis.UniversalClient, prefix string) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, prefix: prefix}
}

// Save records tokenID as live for ttl.
func (s *RefreshTokenStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("refresh token is already expired")
	}
	if err := s.client.Set(ctx, s.prefix+tokenID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Lookup returns the user owning tokenID.
func (s *RefreshTokenStore) Lookup(ctx context.Context, tokenID string) (string, error) {
	if tokenID == "" {
		return "", ports.ErrTokenNotFound
	}
	userID, err := s.client.Get(ctx, s.prefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrTokenNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return userID, nil
}

// Delete revokes tokenID.
func (s *RefreshTokenStore) Delete(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+tokenID).Err()
}

// LoginThrottle counts failed logins in keys that expire at the end of the window.
type LoginThrottle struct {
	client redis.UniversalClient
	prefix string
}

// NewLoginThrottle creates a Redis-backed login throttle.
func NewLoginThrottle(client redis.UniversalClient) *LoginThrottle {
	return &LoginThrottle{client: client, prefix: defaultThrottlePrefix}
}

// Failures returns the failure count in the current window.
func (t *LoginThrottle) Failures(ctx context.Context, key string) (int, error) {
	v, err := t.client.Get(ctx, t.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse failure count: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter. The window starts at the first failure
// and is not extended by later ones.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	k := t.prefix + key
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return int(incr.Val()), nil
}

// Reset clears the counter.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}

// Health pings Redis.
type Health struct {
	Client redis.UniversalClient
}

// Ping reports Redis reachability.
func (h Health) Ping(ctx context.Context) error {
	if err := h.Client.Ping(ctx).Err(); err != nil {
		return apperrors.Unavailable("redis is unreachable", err)
	}
	return nil
}
