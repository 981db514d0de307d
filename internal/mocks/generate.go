// Package mocks provides mock implementations of the entity store ports.
//
// This package uses go.uber.org/mock (gomock). The mocks are generated with
// go:generate and give a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	runs := mocks.NewMockRunRepository(ctrl)
//	runs.EXPECT().GetByID(gomock.Any(), id).Return(run, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_repository_mock.go github.com/target/harvester-api/internal/core RunRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/harvester-api/internal/core JobRepository
