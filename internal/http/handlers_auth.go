package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, in service.LoginInput) (*domainauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domainauth.AccessToken, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// AuthHandlers provides HTTP handlers for token issuance.
type AuthHandlers struct {
	Svc AuthServiceInterface
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandlers) Token(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !DecodeJSON(w, r, &req) {
		return
	}
	pair, err := h.Svc.Login(r.Context(), req)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, pair)
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	tok, err := h.Svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, tok)
}

// Revoke handles POST /api/auth/revoke.
func (h *AuthHandlers) Revoke(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Svc.Revoke(r.Context(), req.Refresh); err != nil {
		WriteAppError(w, r, err)
		return
	}
	WriteOK(w, http.StatusOK, Deleted{Success: true})
}
