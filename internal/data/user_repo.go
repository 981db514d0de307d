package data

import (
	"context"
	"database/sql"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

var _ core.UserRepository = (*UserRepo)(nil)

// UserRepo provides database operations for user accounts.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo. A nil TimeProvider uses the system clock.
func NewUserRepo(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: orRealTime(tp)}
}

const userReturning = "id, email, password_hash, is_active, created_at"

// Create inserts a new active user. The caller must have hashed the password.
// A duplicate email violates users_email_key and surfaces as Conflict on field email.
func (r *UserRepo) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil || req.PasswordHash == "" {
		return nil, apperrors.Validation("password hash is required")
	}
	out, err := queryOne[model.User](ctx, r.DB, `
		INSERT INTO users (email, password_hash, is_active, created_at)
		VALUES ($1, $2, TRUE, $3)
		RETURNING `+userReturning,
		model.NormalizeEmail(req.Email), req.PasswordHash, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, notFound("user")
	}
	out, err := queryOne[model.User](ctx, r.DB, `SELECT `+userReturning+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return out, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	out, err := queryOne[model.User](ctx, r.DB,
		`SELECT `+userReturning+` FROM users WHERE email = $1`, model.NormalizeEmail(email))
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return out, nil
}

// SetActive enables or disables a user.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	if !validID(id) {
		return notFound("user")
	}
	n, err := execAffected(ctx, r.DB, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return mapRepoErr(err, "user")
	}
	if n == 0 {
		return notFound("user")
	}
	return nil
}
