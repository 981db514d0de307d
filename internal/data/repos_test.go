package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/testutil"
)

func TestRepos_CreateRejectsMissingParent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repos := NewRepositories(db, nil)
		missing := uuid.NewString()

		_, err := repos.Jobs.Create(ctx, testutil.NewJobRequest().WithProject(missing).Build())
		require.Error(t, err)
		assert.True(t, apperrors.IsReferenceNotFound(err))
		assert.Equal(t, "project_id", apperrors.GetField(err))

		_, err = repos.Runs.Create(ctx, &model.CreateRunRequest{JobID: missing})
		assert.True(t, apperrors.IsReferenceNotFound(err))
		assert.Equal(t, "job_id", apperrors.GetField(err))

		_, err = repos.Results.Create(ctx, &model.CreateResultRequest{RunID: "not-a-uuid"})
		assert.True(t, apperrors.IsReferenceNotFound(err))
	})
}

func TestRepos_DeleteProtectsParents(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repos := NewRepositories(db, nil)
		chain := testutil.SeedChain(t, repos)

		assert.True(t, apperrors.IsHasDependents(repos.Projects.Delete(ctx, chain.Project.ID)))
		assert.True(t, apperrors.IsHasDependents(repos.Jobs.Delete(ctx, chain.Job.ID)))
		assert.True(t, apperrors.IsHasDependents(repos.Runs.Delete(ctx, chain.Run.ID)))

		// Every record is still intact.
		_, err := repos.Projects.GetByID(ctx, chain.Project.ID)
		require.NoError(t, err)
		_, err = repos.Jobs.GetByID(ctx, chain.Job.ID)
		require.NoError(t, err)
		_, err = repos.Runs.GetByID(ctx, chain.Run.ID)
		require.NoError(t, err)
		_, err = repos.Results.GetByID(ctx, chain.Result.ID)
		require.NoError(t, err)

		require.NoError(t, repos.Results.Delete(ctx, chain.Result.ID))
		require.NoError(t, repos.Runs.Delete(ctx, chain.Run.ID))
		require.NoError(t, repos.Jobs.Delete(ctx, chain.Job.ID))
		require.NoError(t, repos.Projects.Delete(ctx, chain.Project.ID))

		assert.True(t, apperrors.IsNotFound(repos.Projects.Delete(ctx, chain.Project.ID)))
	})
}

func TestRepos_GetByIDNotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repos := NewRepositories(db, nil)

		for _, id := range []string{uuid.NewString(), "garbage"} {
			_, err := repos.Projects.GetByID(ctx, id)
			assert.True(t, apperrors.IsNotFound(err), id)
			_, err = repos.Jobs.GetByID(ctx, id)
			assert.True(t, apperrors.IsNotFound(err), id)
			_, err = repos.Runs.GetByID(ctx, id)
			assert.True(t, apperrors.IsNotFound(err), id)
			_, err = repos.Results.GetByID(ctx, id)
			assert.True(t, apperrors.IsNotFound(err), id)
		}
	})
}

func TestJobRepo_UpdateWritesConfigAndTouchesUpdatedAt(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		clock := NewFixedTimeProvider(testutil.TestTime())
		repo := NewJobRepo(db, clock)

		job, err := repo.Create(ctx, testutil.NewJobRequest().
			WithRawYAML("name: x", model.Document{"name": "x"}).Build())
		require.NoError(t, err)
		assert.True(t, job.IsActive)
		assert.Equal(t, model.Document{"name": "x"}, job.ParsedYAML)
		assert.Nil(t, job.ProjectID)

		clock.AddTime(time.Minute)
		raw := "steps:\n  - fetch\n"
		updated, err := repo.Update(ctx, job.ID, model.UpdateJobRequest{
			RawYAML:    &raw,
			ParsedYAML: model.Document{"steps": []any{"fetch"}},
		})
		require.NoError(t, err)
		assert.Equal(t, raw, *updated.RawYAML)
		assert.Equal(t, model.Document{"steps": []any{"fetch"}}, updated.ParsedYAML)
		assert.Equal(t, "test-job", updated.Name)
		assert.True(t, updated.UpdatedAt.After(job.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(job.CreatedAt))

		empty := ""
		cleared, err := repo.Update(ctx, job.ID, model.UpdateJobRequest{RawYAML: &empty})
		require.NoError(t, err)
		assert.Nil(t, cleared.ParsedYAML)

		at := testutil.TestTime().Add(time.Hour)
		require.NoError(t, repo.MarkRun(ctx, job.ID, at))
		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastRunAt)
		assert.True(t, got.LastRunAt.Equal(at))
	})
}

func TestRunRepo_ListFiltersAndCounts(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repos := NewRepositories(db, nil)
		chain := testutil.SeedChain(t, repos)

		for range 3 {
			_, err := repos.Runs.Create(ctx, &model.CreateRunRequest{JobID: chain.Job.ID})
			require.NoError(t, err)
		}
		running := model.RunStatusRunning
		_, err := repos.Runs.Update(ctx, chain.Run.ID, model.UpdateRunRequest{Status: &running})
		require.NoError(t, err)

		page, total, err := repos.Runs.List(ctx, model.RunListOptions{JobID: &chain.Job.ID, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, page, 2)
		assert.Equal(t, chain.Run.ID, page[0].ID)

		queued := model.RunStatusQueued
		_, total, err = repos.Runs.List(ctx, model.RunListOptions{JobID: &chain.Job.ID, Status: &queued})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})
}

func TestRunRepo_TransitionStatusCompareAndSet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repos := NewRepositories(db, nil)
		chain := testutil.SeedChain(t, repos)

		params := core.TransitionParams{
			ID:   chain.Run.ID,
			From: []model.RunStatus{model.RunStatusQueued, model.RunStatusFailure},
			To:   model.RunStatusRunning,
		}

		attempts := make([]func() error, 8)
		for i := range attempts {
			attempts[i] = func() error {
				_, err := repos.Runs.TransitionStatus(ctx, params)
				return err
			}
		}
		errs := testutil.RunConcurrent(attempts...)

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, apperrors.IsInvalidTransition(err), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, wins)

		got, err := repos.Runs.GetByID(ctx, chain.Run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusRunning, got.Status)

		params.ID = uuid.NewString()
		_, err = repos.Runs.TransitionStatus(ctx, params)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUserRepo_DuplicateEmailConflict(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db, nil)

		u, err := repo.Create(ctx, &model.CreateUserRequest{Email: "Ops@Example.com", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", u.Email)
		assert.True(t, u.IsActive)

		_, err = repo.Create(ctx, &model.CreateUserRequest{Email: "ops@example.com", PasswordHash: "hash"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "email", apperrors.GetField(err))

		require.NoError(t, repo.SetActive(ctx, u.ID, false))
		got, err := repo.GetByEmail(ctx, " OPS@example.com ")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})
}

func TestHealthRepo_Ping(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := &HealthRepo{DB: db}
		assert.NoError(t, h.Ping(context.Background()))
	})
}
