package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

func TestStaticValidator(t *testing.T) {
	v := NewStaticValidator()
	v.Tokens["good"] = domainauth.Principal{UserID: "u-1"}
	v.Expired["old"] = true
	ctx := context.Background()

	p, err := v.Validate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)

	_, err = v.Validate(ctx, "old")
	assert.True(t, apperrors.IsTokenExpired(err))

	_, err = v.Validate(ctx, "bad")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestStaticValidator_CustomFunc(t *testing.T) {
	v := &StaticValidator{
		ValidateFunc: func(context.Context, string) (domainauth.Principal, error) {
			return domainauth.Principal{UserID: "func-user"}, nil
		},
	}
	p, err := v.Validate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "func-user", p.UserID)
}

func TestPlainHasher(t *testing.T) {
	h, err := PlainHasher{}.Hash("secret")
	require.NoError(t, err)
	require.NoError(t, PlainHasher{}.Compare(h, "secret"))
	assert.ErrorIs(t, PlainHasher{}.Compare(h, "other"), ErrMismatch)
	assert.ErrorIs(t, PlainHasher{}.Compare("secret", "secret"), ErrMismatch)
}

func TestMemoryRefreshStore(t *testing.T) {
	store := NewMemoryRefreshStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti", "u-1", time.Hour))
	owner, err := store.Lookup(ctx, "jti")
	require.NoError(t, err)
	assert.Equal(t, "u-1", owner)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "jti"))
	_, err = store.Lookup(ctx, "jti")
	assert.ErrorIs(t, err, ports.ErrTokenNotFound)

	require.Error(t, store.Save(ctx, "", "u-1", time.Hour))

	boom := errors.New("boom")
	store.LookupErr = boom
	_, err = store.Lookup(ctx, "jti")
	assert.ErrorIs(t, err, boom)
}
