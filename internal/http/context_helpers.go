package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type principalKey struct{}

type requestIDKey struct{}

type loggerKey struct{}

// SetPrincipalInContext returns a child context that carries the given principal.
// If p is nil, the original ctx is returned unchanged.
func SetPrincipalInContext(ctx context.Context, p *domainauth.Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil when anonymous.
func PrincipalFromContext(ctx context.Context) *domainauth.Principal {
	if p, ok := ctx.Value(principalKey{}).(*domainauth.Principal); ok {
		return p
	}
	return nil
}

// RequestIDFromContext returns the id assigned by the Logging middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestLogger(ctx context.Context, id string, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the request-scoped logger, falling back to slog.Default.
func loggerFrom(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
