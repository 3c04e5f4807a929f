package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httputil"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/validator"
)

// AuthHandler handles HTTP requests for the session lifecycle.
type AuthHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(sessions SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// LoginRequest is the JSON request body for opening a session.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// SessionResponse describes an open session. The API token never leaves the
// server.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	ProfileID string    `json:"profile_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: SessionResponse{
		SessionID: sess.ID,
		ProfileID: sess.ProfileID,
		Username:  sess.Username,
		ExpiresAt: sess.ExpiresAt,
	}})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeNoSession(w, r, h.logger)
		return
	}

	if err := h.sessions.Logout(r.Context(), sess.ID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
