package data

import (
	"context"
	"database/sql"

	"github.com/target/harvester-api/internal/core"
	apperrors "github.com/target/harvester-api/internal/errors"
)

// HealthRepo reports database reachability.
type HealthRepo struct {
	DB *sql.DB
}

// Ping checks the database connection.
func (h *HealthRepo) Ping(ctx context.Context) error {
	if err := h.DB.PingContext(ctx); err != nil {
		return apperrors.Unavailable("database is unreachable", err)
	}
	return nil
}

// NewRepositories wires every Postgres repository over one connection pool.
func NewRepositories(db *sql.DB, tp TimeProvider) core.Repositories {
	return core.Repositories{
		Projects: NewProjectRepo(db, tp),
		Jobs:     NewJobRepo(db, tp),
		Runs:     NewRunRepo(db, tp),
		Results:  NewResultRepo(db, tp),
		Users:    NewUserRepo(db, tp),
		Health:   &HealthRepo{DB: db},
	}
}
