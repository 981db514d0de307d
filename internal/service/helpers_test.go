package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data/memstore"
	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/testutil"
)

func newMemRepos() core.Repositories {
	return memstore.New().Repositories()
}

func createRun(t *testing.T, repos core.Repositories, status model.RunStatus) *model.Run {
	t.Helper()
	ctx := context.Background()
	chain := testutil.SeedChain(t, repos)
	run, err := repos.Runs.Create(ctx, &model.CreateRunRequest{JobID: chain.Job.ID})
	require.NoError(t, err)
	if status != model.RunStatusQueued {
		run, err = repos.Runs.Update(ctx, run.ID, model.UpdateRunRequest{Status: &status})
		require.NoError(t, err)
	}
	return run
}
