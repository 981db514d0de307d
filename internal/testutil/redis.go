package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTestRedisDB keeps test keys away from the DB a local server uses.
const defaultTestRedisDB = 15

// SetupTestRedis connects to TEST_REDIS_ADDR (default localhost:56379) and
// flushes the test DB, selected by TEST_REDIS_DB. The test is skipped when the
// server is unreachable unless TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:56379")
	db := defaultTestRedisDB
	if v, err := strconv.Atoi(getEnvOrDefault("TEST_REDIS_DB", "")); err == nil && v >= 0 {
		db = v
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		if requireRedis() {
			t.Fatalf("redis not available at %s: %v", addr, err)
		}
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Logf("flush redis db %d: %v", db, err)
	}
	t.Cleanup(func() { closeAndLog(t, "redis client", client) })
	return client
}
