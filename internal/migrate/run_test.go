package migrate_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/migrate"
	"github.com/target/harvester-api/internal/testutil"
)

func TestLoad_EmbeddedSchema(t *testing.T) {
	all, err := migrate.Load()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "0001_init", all[0].Version)
	for _, table := range []string{"projects", "jobs", "runs", "results", "users"} {
		assert.Contains(t, all[0].SQL, table)
	}
}

func TestPending(t *testing.T) {
	all := []migrate.Migration{{Version: "0001_init"}, {Version: "0002_users"}, {Version: "0003_idx"}}
	got := migrate.Pending(all, map[string]bool{"0001_init": true, "0003_idx": true})
	assert.Equal(t, []migrate.Migration{{Version: "0002_users"}}, got)
	assert.Len(t, migrate.Pending(all, nil), 3)
}

func TestLoadFS_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("B")},
		"m/0001_a.sql": {Data: []byte("A")},
		"m/README.md":  {Data: []byte("ignored")},
		"m/sub/x.sql":  {Data: []byte("nested")},
	}
	got, err := migrate.LoadFS(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []migrate.Migration{{Version: "0001_a", SQL: "A"}, {Version: "0002_b", SQL: "B"}}, got)
}

func TestRun_Idempotent(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		require.NoError(t, migrate.Run(ctx, db, nil))
		require.NoError(t, migrate.Run(ctx, db, nil))

		all, err := migrate.Load()
		require.NoError(t, err)
		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&n))
		assert.Equal(t, len(all), n)
	})
}
