// Package authchain combines several token validators into one.
package authchain

import (
	"context"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	apperrors "github.com/target/harvester-api/internal/errors"
	"github.com/target/harvester-api/internal/ports"
)

var _ ports.TokenValidator = Chain(nil)

// Chain tries each validator in order and accepts the first success.
//
// When every validator rejects the token, an expiry error wins over other
// rejections so the caller learns the credential only needs refreshing.
type Chain []ports.TokenValidator

// New builds a Chain, skipping nil validators.
func New(validators ...ports.TokenValidator) Chain {
	out := make(Chain, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Validate implements ports.TokenValidator.
func (c Chain) Validate(ctx context.Context, token string) (domainauth.Principal, error) {
	if len(c) == 0 {
		return domainauth.Principal{}, apperrors.Unauthorized("no token validators configured")
	}
	var first error
	for _, v := range c {
		p, err := v.Validate(ctx, token)
		if err == nil {
			return p, nil
		}
		if apperrors.IsTokenExpired(err) {
			return domainauth.Principal{}, err
		}
		if first == nil {
			first = err
		}
	}
	return domainauth.Principal{}, first
}
