package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/spacetime/internal/auth"
	"github.com/sakif/spacetime/internal/service"
)

// AuthHandler exposes the registration endpoint and the current-user
// lookup. It parses HTTP and delegates everything else to AuthService.
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		logger:  logger,
	}
}

type registerRequest struct {
	Code string `json:"code"`
}

type registerResponse struct {
	Token string `json:"token"`
}

// HandleRegister exchanges a GitHub authorization code for a bearer token.
//
// HTTP: POST /api/auth/register
// Body: {"code": "<authorization code>"}
// Response: {"token": "<jwt>"}
//
// The client obtained the code from GitHub's authorize redirect; the
// whole server-side flow (exchange, find-or-create, sign) lives in
// AuthService.Register. No token is issued on any failure.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("register: invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with a code field",
		})
		return
	}

	token, err := h.authSvc.Register(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("register failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Token: token})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sub, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't panic if miswired.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
