package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/harvester-api/internal/adapters/jwtauth"
	"github.com/target/harvester-api/internal/data/memstore"
	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
	mocks "github.com/target/harvester-api/internal/mocks/auth"
	"github.com/target/harvester-api/internal/ports"
)

// mockThrottle is a test helper for testing login throttle errors.
type mockThrottle struct {
	failuresFunc func(context.Context, string) (int, error)
	recordFunc   func(context.Context, string, time.Duration) (int, error)
	resetFunc    func(context.Context, string) error
}

func (m *mockThrottle) Failures(ctx context.Context, key string) (int, error) {
	if m.failuresFunc != nil {
		return m.failuresFunc(ctx, key)
	}
	return 0, nil
}

func (m *mockThrottle) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, key, window)
	}
	return 1, nil
}

func (m *mockThrottle) Reset(ctx context.Context, key string) error {
	if m.resetFunc != nil {
		return m.resetFunc(ctx, key)
	}
	return nil
}

type authFixture struct {
	svc      *AuthService
	tokens   *jwtauth.Tokens
	refresh  *mocks.MemoryRefreshStore
	throttle ports.LoginThrottle
	users    *memstore.UserRepo
}

func newAuthFixture(t *testing.T, throttle ports.LoginThrottle) *authFixture {
	t.Helper()
	tokens, err := jwtauth.New(jwtauth.Config{
		Secret:     "unit-test-secret-that-is-long-enough",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	users := memstore.New().Users()
	refresh := mocks.NewMemoryRefreshStore()
	svc := NewAuthService(AuthServiceOptions{
		Users: users,
		Credentials: AuthCredentials{
			Issuer:  tokens,
			Refresh: refresh,
			Hasher:  mocks.PlainHasher{},
		},
		Lockout: LockoutOptions{Throttle: throttle, MaxFailures: 3, Window: 15 * time.Minute},
	})
	return &authFixture{svc: svc, tokens: tokens, refresh: refresh, throttle: throttle, users: users}
}

func (f *authFixture) seedUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), &model.CreateUserRequest{Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func TestNewAuthService_RequiredDependencies(t *testing.T) {
	users := memstore.New().Users()
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{}) })
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{Users: users, Credentials: AuthCredentials{Hasher: mocks.PlainHasher{}}})
	})
}

func TestAuthService_LoginRefreshRevoke(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	user := f.seedUser(t, "Ops@Example.com", "correct-horse")

	pair, err := f.svc.Login(ctx, LoginInput{Email: " ops@example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, 1, f.refresh.Len())

	p, err := f.tokens.Validate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, "ops@example.com", p.Email)

	access, err := f.svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = f.tokens.Validate(ctx, access.Access)
	require.NoError(t, err)

	// An access token is not accepted where a refresh token is expected.
	_, err = f.svc.Refresh(ctx, pair.Access)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidRefreshToken))

	require.NoError(t, f.svc.Revoke(ctx, pair.Refresh))
	assert.Zero(t, f.refresh.Len())

	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidRefreshToken))
	err = f.svc.Revoke(ctx, pair.Refresh)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidRefreshToken))
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	f.seedUser(t, "ops@example.com", "correct-horse")

	tests := []LoginInput{
		{Email: "ops@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "correct-horse"},
		{Email: "", Password: "correct-horse"},
		{Email: "ops@example.com", Password: ""},
	}
	for _, in := range tests {
		_, err := f.svc.Login(ctx, in)
		require.Error(t, err)
		assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidCredentials), "input %+v", in)
	}
	assert.Zero(t, f.refresh.Len())
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	f.seedUser(t, "ops@example.com", "correct-horse")
	pair, err := f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeactivateUser(ctx, "ops@example.com"))

	_, err = f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidCredentials))

	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidRefreshToken))
}

func TestAuthService_Login_Lockout(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	throttle := memstore.NewLoginThrottle(func() time.Time { return now })
	f := newAuthFixture(t, throttle)
	ctx := context.Background()
	f.seedUser(t, "ops@example.com", "correct-horse")

	for range 3 {
		_, err := f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "wrong"})
		assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidCredentials))
	}

	_, err := f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeLocked))

	now = now.Add(16 * time.Minute)
	_, err = f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	n, err := throttle.Failures(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuthService_Login_ThrottleOutageFailsOpen(t *testing.T) {
	outage := errors.New("redis: connection refused")
	throttle := &mockThrottle{
		failuresFunc: func(context.Context, string) (int, error) { return 0, outage },
		resetFunc:    func(context.Context, string) error { return outage },
	}
	f := newAuthFixture(t, throttle)
	f.seedUser(t, "ops@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	require.NoError(t, err)
}

func TestAuthService_RefreshStoreFailures(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	f.seedUser(t, "ops@example.com", "correct-horse")

	f.refresh.SaveErr = errors.New("store down")
	_, err := f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeUnavailable))

	f.refresh.SaveErr = nil
	pair, err := f.svc.Login(ctx, LoginInput{Email: "ops@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	f.refresh.LookupErr = errors.New("store down")
	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeUnavailable))
}

func TestAuthService_Refresh_OwnerMismatch(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	user := f.seedUser(t, "ops@example.com", "correct-horse")

	issued, err := f.tokens.Issue(ports.IssueInput{UserID: user.ID, Type: domainauth.TokenTypeRefresh})
	require.NoError(t, err)
	require.NoError(t, f.refresh.Save(ctx, issued.TokenID, "someone-else", time.Hour))

	_, err = f.svc.Refresh(ctx, issued.Token)
	assert.True(t, apperrors.IsAppError(err, apperrors.ErrCodeInvalidRefreshToken))
}

func TestAuthService_CreateUser(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	u := f.seedUser(t, "New@Example.com", "long-password")
	assert.Equal(t, "new@example.com", u.Email)
	assert.True(t, u.IsActive)

	stored, err := f.users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "plain:long-password", stored.PasswordHash)

	_, err = f.svc.CreateUser(ctx, &model.CreateUserRequest{Email: "new@example.com", Password: "long-password"})
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svc.CreateUser(ctx, &model.CreateUserRequest{Email: "bad", Password: "long-password"})
	assert.True(t, apperrors.IsValidation(err))

	err = f.svc.DeactivateUser(ctx, "ghost@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}
