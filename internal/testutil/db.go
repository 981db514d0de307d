package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	// Register the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/target/harvester-api/internal/migrate"
)

// TestDBConfig locates the Postgres instance used by integration tests.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* and falls back to the docker-compose
// test profile on port 55432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "harvester"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "harvester"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "harvester"),
	}
}

// DSN returns a pgx connection URL, optionally scoped to a search_path.
func (c TestDBConfig) DSN(schema string) string {
	q := url.Values{"sslmode": []string{getEnvOrDefault("DB_SSL_MODE", "disable")}}
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SkipIfNoTestDB skips t when the test database cannot be reached. With
// TEST_REQUIRE_DB or TEST_REQUIRE_INFRA set the test fails instead.
func SkipIfNoTestDB(t testing.TB) {
	t.Helper()
	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(""))
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = db.PingContext(ctx)
		cancel()
		closeAndLog(t, "probe DB", db)
	}
	if err == nil {
		return
	}
	if requireDB() {
		t.Fatal("test database not available:", err)
	}
	t.Skip("test database not available:", err)
}

// WithAutoDB runs fn against a migrated database. With TEST_DB_EPHEMERAL set
// every call gets its own schema, dropped afterwards; otherwise the shared
// database is used and its tables are emptied before and after fn.
func WithAutoDB(t testing.TB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)
	if envBool("TEST_DB_EPHEMERAL") {
		fn(setupEphemeralSchemaDB(t))
		return
	}
	db := setupSharedDB(t)
	defer func() {
		truncateAll(t, db)
		closeAndLog(t, "test DB", db)
	}()
	fn(db)
}

func setupSharedDB(t testing.TB) *sql.DB {
	t.Helper()
	db := openAndMigrate(t, DefaultTestDBConfig().DSN(""))
	truncateAll(t, db)
	return db
}

func setupEphemeralSchemaDB(t testing.TB) *sql.DB {
	t.Helper()
	cfg := DefaultTestDBConfig()
	admin := open(t, cfg.DSN(""))
	schema := generateSchemaName()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Logf("using ephemeral schema %s", schema)

	db := open(t, cfg.DSN(schema))
	t.Cleanup(func() {
		closeAndLog(t, "schema DB", db)
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		closeAndLog(t, "admin DB", admin)
	})
	if err := migrate.Run(ctx, db, nil); err != nil {
		t.Fatal("migrate ephemeral schema:", err)
	}
	return db
}

func openAndMigrate(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db := open(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db, nil); err != nil {
		closeAndLog(t, "test DB", db)
		t.Fatal("run migrations:", err)
	}
	return db
}

func open(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("open test DB:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeAndLog(t, "test DB", db)
		t.Fatal("ping test DB:", err)
	}
	return db
}

// truncateAll empties every table, children first since foreign keys restrict deletes.
func truncateAll(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range []string{"results", "runs", "jobs", "projects", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
}

func generateSchemaName() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "t_" + hex.EncodeToString(b)
}

func closeAndLog(t testing.TB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
