package memstore

import (
	"context"

	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

type userRecord = model.User

var _ core.UserRepository = (*UserRepo)(nil)

// UserRepo is the user view of a Store.
type UserRepo struct{ s *Store }

// Users returns the user repository.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func userNotFound() error { return apperrors.NotFound("user not found") }

// Create inserts a new active user. The caller must have hashed the password.
func (r *UserRepo) Create(_ context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil || req.PasswordHash == "" {
		return nil, apperrors.Validation("password hash is required")
	}
	email := model.NormalizeEmail(req.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.users.exists(func(u model.User) bool { return u.Email == email }) {
		return nil, &apperrors.AppError{Code: apperrors.ErrCodeConflict, Message: "this value already exists", Field: "email"}
	}
	u := model.User{
		ID:           r.s.newID(),
		Email:        email,
		PasswordHash: req.PasswordHash,
		IsActive:     true,
		CreatedAt:    r.s.timestamp(),
	}
	r.s.users.insert(u.ID, u)
	out := u
	return &out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users.get(id)
	if !ok {
		return nil, userNotFound()
	}
	return &u, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := r.s.users.filter(func(u model.User) bool { return u.Email == email })
	if len(found) == 0 {
		return nil, userNotFound()
	}
	u := found[0]
	return &u, nil
}

// SetActive enables or disables a user.
func (r *UserRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users.get(id)
	if !ok {
		return userNotFound()
	}
	u.IsActive = active
	r.s.users.put(id, u)
	return nil
}
