package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/devseed"
)

func TestNewSeeder_OpenPolicyMemoryStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.Ownership = config.OwnershipOpen

	svcs, err := NewSeeder(context.Background(), SeedDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	assert.Nil(t, svcs.Owner)
	require.NoError(t, devseed.Run(context.Background(), svcs, discardLogger()))
}

func TestNewSeeder_OwnerPolicyNeedsOwner(t *testing.T) {
	cfg := memoryConfig()
	cfg.Ownership = config.OwnershipOwner

	_, err := NewSeeder(context.Background(), SeedDeps{Config: cfg, Logger: discardLogger()})
	require.Error(t, err)

	_, err = NewSeeder(context.Background(), SeedDeps{Config: cfg, OwnerEmail: "nobody@example.com", Logger: discardLogger()})
	require.Error(t, err)
}

func TestNewSeeder_RequiresConfig(t *testing.T) {
	_, err := NewSeeder(context.Background(), SeedDeps{})
	require.Error(t, err)
}
