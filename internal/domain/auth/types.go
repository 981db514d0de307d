// Package auth contains domain-level types for authentication and tokens.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// TokenType distinguishes the two kinds of bearer tokens the API issues.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Principal is the authenticated caller resolved by the auth gate.
// Handlers receive it as *Principal; nil means anonymous.
type Principal struct {
	UserID string
	Email  string
	// Issuer names the validator that accepted the credential ("local" or an OIDC issuer URL).
	Issuer string
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessToken is returned by a successful refresh.
type AccessToken struct {
	Access string `json:"access"`
}

// IssuedToken describes a minted token. TokenID is the jti claim.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenClaims is the validated content of a locally issued token.
type TokenClaims struct {
	UserID    string
	Email     string
	TokenID   string
	Type      TokenType
	ExpiresAt time.Time
}
