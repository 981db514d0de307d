package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/harvester-api/internal/errors"
)

const testKeyID = "test-key"

type fakeIssuer struct {
	server *httptest.Server
	key    *rsa.PrivateKey
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	fi := &fakeIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                fi.server.URL,
			"authorization_endpoint":                fi.server.URL + "/auth",
			"token_endpoint":                        fi.server.URL + "/token",
			"jwks_uri":                              fi.server.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	fi.server = httptest.NewServer(mux)
	t.Cleanup(fi.server.Close)
	return fi
}

func (fi *fakeIssuer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	signed, err := tok.SignedString(fi.key)
	require.NoError(t, err)
	return signed
}

func TestNewValidator_RequiresConfig(t *testing.T) {
	_, err := NewValidator(context.Background(), Config{Audience: "api"})
	require.Error(t, err)
	_, err = NewValidator(context.Background(), Config{IssuerURL: "https://example.com"})
	require.Error(t, err)
}

func TestValidator_Validate(t *testing.T) {
	fi := newFakeIssuer(t)
	v, err := NewValidator(context.Background(), Config{IssuerURL: fi.server.URL + "/", Audience: "harvester"})
	require.NoError(t, err)
	assert.Equal(t, fi.server.URL, v.Issuer())

	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   fi.server.URL,
			"aud":   "harvester",
			"sub":   "sso-user",
			"email": "sso@example.com",
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
		}
	}

	t.Run("valid", func(t *testing.T) {
		p, err := v.Validate(context.Background(), fi.sign(t, base()))
		require.NoError(t, err)
		assert.Equal(t, "sso-user", p.UserID)
		assert.Equal(t, "sso@example.com", p.Email)
		assert.Equal(t, fi.server.URL, p.Issuer)
	})

	t.Run("expired", func(t *testing.T) {
		c := base()
		c["exp"] = now.Add(-time.Minute).Unix()
		_, err := v.Validate(context.Background(), fi.sign(t, c))
		require.Error(t, err)
		assert.True(t, apperrors.IsTokenExpired(err))
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := base()
		c["aud"] = "someone-else"
		_, err := v.Validate(context.Background(), fi.sign(t, c))
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Validate(context.Background(), "abc.def.ghi")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})
}
