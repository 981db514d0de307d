package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	domainrun "github.com/target/harvester-api/internal/domain/run"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/mocks"
	"github.com/target/harvester-api/internal/observability/statsd"
	"github.com/target/harvester-api/internal/testutil"
)

func newRunService(repos core.Repositories, rec *statsd.Recorder, now time.Time) *RunService {
	runtime := RunRuntime{Now: testutil.FixedTimeFunc(now)}
	if rec != nil {
		runtime.Metrics = rec
	}
	return NewRunService(RunServiceOptions{
		Repo:    repos.Runs,
		Jobs:    repos.Jobs,
		Runtime: runtime,
	})
}

func TestNewRunService_RequiredDependencies(t *testing.T) {
	repos := newMemRepos()
	assert.Panics(t, func() { NewRunService(RunServiceOptions{Jobs: repos.Jobs}) })
	assert.Panics(t, func() { NewRunService(RunServiceOptions{Repo: repos.Runs}) })
	assert.NotNil(t, NewRunService(RunServiceOptions{Repo: repos.Runs, Jobs: repos.Jobs}))
}

func TestRunService_Trigger_TransitionGuard(t *testing.T) {
	tests := []struct {
		from    model.RunStatus
		wantErr bool
	}{
		{from: model.RunStatusQueued},
		{from: model.RunStatusFailure},
		{from: model.RunStatusRunning, wantErr: true},
		{from: model.RunStatusSuccess, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			repos := newMemRepos()
			rec := &statsd.Recorder{}
			svc := newRunService(repos, rec, testutil.TestTime())
			run := createRun(t, repos, tt.from)

			resp, err := svc.Trigger(context.Background(), run.ID)

			stored, getErr := repos.Runs.GetByID(context.Background(), run.ID)
			require.NoError(t, getErr)
			transitions := rec.Named("run.transition")
			require.Len(t, transitions, 1)
			assert.Equal(t, string(tt.from), transitions[0].Tags["from"])

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsInvalidTransition(err))
				assert.Equal(t, tt.from, stored.Status)
				assert.Equal(t, "rejected", transitions[0].Tags["result"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domainrun.TriggerMessage, resp.Message)
			assert.Equal(t, run.ID, resp.RunID)
			assert.Equal(t, model.RunStatusRunning, stored.Status)
			assert.Nil(t, stored.StartedAt)
			assert.Nil(t, stored.FinishedAt)
			assert.Equal(t, "success", transitions[0].Tags["result"])
		})
	}
}

func TestRunService_Trigger_RecordsJobLastRun(t *testing.T) {
	repos := newMemRepos()
	now := testutil.TestTime()
	svc := newRunService(repos, nil, now)
	run := createRun(t, repos, model.RunStatusQueued)

	_, err := svc.Trigger(context.Background(), run.ID)
	require.NoError(t, err)

	job, err := repos.Jobs.GetByID(context.Background(), *run.JobID)
	require.NoError(t, err)
	require.NotNil(t, job.LastRunAt)
	assert.True(t, now.Equal(*job.LastRunAt))
}

func TestRunService_Trigger_TypedNilMetricsSink(t *testing.T) {
	repos := newMemRepos()
	var rec *statsd.Recorder
	svc := NewRunService(RunServiceOptions{
		Repo:    repos.Runs,
		Jobs:    repos.Jobs,
		Runtime: RunRuntime{Metrics: rec},
	})
	run := createRun(t, repos, model.RunStatusQueued)

	require.NotPanics(t, func() {
		_, err := svc.Trigger(context.Background(), run.ID)
		require.NoError(t, err)
	})
}

func TestRunService_Trigger_SecondCallRejected(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())
	run := createRun(t, repos, model.RunStatusQueued)
	ctx := context.Background()

	_, err := svc.Trigger(ctx, run.ID)
	require.NoError(t, err)

	_, err = svc.Trigger(ctx, run.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestRunService_Trigger_ConcurrentCallersOneWins(t *testing.T) {
	repos := newMemRepos()
	rec := &statsd.Recorder{}
	svc := newRunService(repos, rec, testutil.TestTime())
	run := createRun(t, repos, model.RunStatusQueued)

	const callers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Trigger(context.Background(), run.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.True(t, apperrors.IsInvalidTransition(err))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, rec.Named("run.transition"), callers)
}

func TestRunService_Trigger_LostRaceIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	runs := mocks.NewMockRunRepository(ctrl)
	jobs := mocks.NewMockJobRepository(ctrl)
	rec := &statsd.Recorder{}
	svc := NewRunService(RunServiceOptions{Repo: runs, Jobs: jobs, Runtime: RunRuntime{Metrics: rec}})

	runs.EXPECT().GetByID(gomock.Any(), "run-1").
		Return(&model.Run{ID: "run-1", Status: model.RunStatusQueued}, nil)
	runs.EXPECT().TransitionStatus(gomock.Any(), core.TransitionParams{
		ID:   "run-1",
		From: []model.RunStatus{model.RunStatusQueued, model.RunStatusFailure},
		To:   model.RunStatusRunning,
	}).Return(nil, apperrors.InvalidTransition(`run cannot move from "running" to "running"`))

	_, err := svc.Trigger(context.Background(), "run-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))

	m := rec.Named("run.transition")
	require.Len(t, m, 1)
	assert.Equal(t, "rejected", m[0].Tags["result"])
	assert.Equal(t, "invalid_transition", m[0].Tags["error_class"])
}

func TestRunService_Trigger_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runs := mocks.NewMockRunRepository(ctrl)
	jobs := mocks.NewMockJobRepository(ctrl)
	rec := &statsd.Recorder{}
	svc := NewRunService(RunServiceOptions{Repo: runs, Jobs: jobs, Runtime: RunRuntime{Metrics: rec}})

	boom := errors.New("connection reset")
	runs.EXPECT().GetByID(gomock.Any(), "run-1").
		Return(&model.Run{ID: "run-1", Status: model.RunStatusFailure}, nil)
	runs.EXPECT().TransitionStatus(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := svc.Trigger(context.Background(), "run-1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "error", rec.Named("run.transition")[0].Tags["result"])
}

func TestRunService_Trigger_MarkRunFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	runs := mocks.NewMockRunRepository(ctrl)
	jobs := mocks.NewMockJobRepository(ctrl)
	svc := NewRunService(RunServiceOptions{Repo: runs, Jobs: jobs})

	jobID := "job-1"
	runs.EXPECT().GetByID(gomock.Any(), "run-1").
		Return(&model.Run{ID: "run-1", JobID: &jobID, Status: model.RunStatusQueued}, nil)
	runs.EXPECT().TransitionStatus(gomock.Any(), gomock.Any()).
		Return(&model.Run{ID: "run-1", JobID: &jobID, Status: model.RunStatusRunning}, nil)
	jobs.EXPECT().MarkRun(gomock.Any(), jobID, gomock.Any()).Return(errors.New("db down"))

	resp, err := svc.Trigger(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestRunService_Trigger_UnknownRun(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())

	_, err := svc.Trigger(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunService_Create_RequiresExistingJob(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreateRunRequest{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Create(ctx, &model.CreateRunRequest{JobID: "not-a-uuid"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "job_id", apperrors.GetField(err))

	_, err = svc.Create(ctx, &model.CreateRunRequest{JobID: "00000000-0000-0000-0000-000000000000"})
	assert.True(t, apperrors.IsNotFound(err))

	chain := testutil.SeedChain(t, repos)
	run, err := svc.Create(ctx, &model.CreateRunRequest{JobID: chain.Job.ID})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)
}

func TestRunService_UpdatePartial(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())
	run := createRun(t, repos, model.RunStatusQueued)
	ctx := context.Background()

	logs := "step 1 ok"
	updated, err := svc.Update(ctx, run.ID, model.UpdateRunRequest{Logs: &logs})
	require.NoError(t, err)
	assert.Equal(t, logs, *updated.Logs)
	assert.Equal(t, model.RunStatusQueued, updated.Status)
	assert.Equal(t, run.JobID, updated.JobID)
}

func TestRunService_Update_TagsLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		from      model.RunStatus
		to        model.RunStatus
		lifecycle string
	}{
		{name: "engine completes run", from: model.RunStatusRunning, to: model.RunStatusSuccess, lifecycle: "on_graph"},
		{name: "queued straight to success", from: model.RunStatusQueued, to: model.RunStatusSuccess, lifecycle: "off_graph"},
		{name: "success reopened", from: model.RunStatusSuccess, to: model.RunStatusQueued, lifecycle: "off_graph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := newMemRepos()
			rec := &statsd.Recorder{}
			svc := newRunService(repos, rec, testutil.TestTime())
			run := createRun(t, repos, tt.from)

			to := tt.to
			updated, err := svc.Update(context.Background(), run.ID, model.UpdateRunRequest{Status: &to})
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)

			got := rec.Named("run.status_update")
			require.Len(t, got, 1)
			assert.Equal(t, map[string]string{
				"from":      string(tt.from),
				"to":        string(tt.to),
				"lifecycle": tt.lifecycle,
			}, got[0].Tags)
		})
	}
}

func TestRunService_Update_UnchangedStatusNotCounted(t *testing.T) {
	repos := newMemRepos()
	rec := &statsd.Recorder{}
	svc := newRunService(repos, rec, testutil.TestTime())
	run := createRun(t, repos, model.RunStatusRunning)
	ctx := context.Background()

	same := model.RunStatusRunning
	_, err := svc.Update(ctx, run.ID, model.UpdateRunRequest{Status: &same})
	require.NoError(t, err)
	logs := "tick"
	_, err = svc.Update(ctx, run.ID, model.UpdateRunRequest{Logs: &logs})
	require.NoError(t, err)

	assert.Empty(t, rec.Named("run.status_update"))
}

func TestRunService_Update_UnknownRunWithStatus(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())

	status := model.RunStatusSuccess
	_, err := svc.Update(context.Background(), "00000000-0000-0000-0000-000000000000",
		model.UpdateRunRequest{Status: &status})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunService_DeleteProtection(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())
	ctx := context.Background()
	chain := testutil.SeedChain(t, repos)

	second, err := repos.Results.Create(ctx, &model.CreateResultRequest{RunID: chain.Run.ID})
	require.NoError(t, err)

	err = svc.Delete(ctx, chain.Run.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsHasDependents(err))
	_, err = repos.Runs.GetByID(ctx, chain.Run.ID)
	require.NoError(t, err)

	require.NoError(t, repos.Results.Delete(ctx, chain.Result.ID))
	require.NoError(t, repos.Results.Delete(ctx, second.ID))
	require.NoError(t, svc.Delete(ctx, chain.Run.ID))

	_, err = repos.Runs.GetByID(ctx, chain.Run.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRunService_ListFilters(t *testing.T) {
	repos := newMemRepos()
	svc := newRunService(repos, nil, testutil.TestTime())
	ctx := context.Background()
	chain := testutil.SeedChain(t, repos)

	for range 3 {
		_, err := svc.Create(ctx, &model.CreateRunRequest{JobID: chain.Job.ID})
		require.NoError(t, err)
	}
	queued := model.RunStatusQueued
	runs, total, err := svc.List(ctx, model.RunListOptions{JobID: &chain.Job.ID, Status: &queued, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, runs, 2)
}
