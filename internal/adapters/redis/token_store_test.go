package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/ports"
	"github.com/target/harvester-api/internal/testutil"
)

func TestRefreshTokenStore_SaveLookupDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	store := NewRefreshTokenStoreWithPrefix(client, "test:refresh:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Minute))

	owner, err := store.Lookup(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", owner)

	ttl, err := client.TTL(ctx, "test:refresh:jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "jti-1"))
	_, err = store.Lookup(ctx, "jti-1")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
}

func TestRefreshTokenStore_RejectsBadInput(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	store := NewRefreshTokenStore(client)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", "user", time.Minute))
	assert.Error(t, store.Save(ctx, "jti", "user", 0))
	_, err := store.Lookup(ctx, "")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestLoginThrottle_CountsWithinWindow(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	throttle := NewLoginThrottle(client)
	ctx := context.Background()
	key := "ops@example.com"

	n, err := throttle.Failures(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		got, err := throttle.RecordFailure(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	n, err = throttle.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, throttle.Reset(ctx, key))
	n, err = throttle.Failures(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHealth_Ping(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	assert.NoError(t, Health{Client: client}.Ping(context.Background()))
}
