package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/todo-api/internal/domain"
	"github.com/msomdec/todo-api/internal/service"
)

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleSignup creates an account and starts its first session.
// POST /users
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}} with the session token in the x-auth header.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "An account with that email already exists.")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	w.Header().Set(AuthHeader, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogin verifies credentials and starts a new session.
// POST /users/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}} with the session token in the x-auth header.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid email or password.")
			return
		}
		slog.Error("login user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	w.Header().Set(AuthHeader, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleMe returns the currently authenticated user.
// GET /users/details
// Response: {"user": {...}}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(sess.User),
	})
}

// HandleLogout revokes the session token the request authenticated with.
// Other sessions of the same user stay valid.
// DELETE /users/details/token
// Response: 200 with no body.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	if err := h.auth.RevokeSession(r.Context(), sess.User, sess.Token); err != nil {
		slog.Error("revoke session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleChangePassword sets a new password after verifying the current one.
// PUT /users/details/password
// Request:  {"currentPassword":"...","newPassword":"..."}
// Response: 200 with no body.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.auth.ChangePassword(r.Context(), sess.User, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Current password is incorrect.")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("change password", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.WriteHeader(http.StatusOK)
}
