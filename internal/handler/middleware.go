package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/todo-api/internal/domain"
	"github.com/msomdec/todo-api/internal/service"
)

// AuthHeader is the request and response header carrying the session token.
const AuthHeader = "x-auth"

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated (user, token) pair attached to the request
// context by RequireAuth.
type Session struct {
	User  *domain.User
	Token string
}

// SessionFromContext extracts the authenticated session from the request
// context. Returns nil if the request is not authenticated.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// RequireAuth protects routes requiring authentication. It reads the x-auth
// header, resolves it through the session registry, and injects the session
// into the request context. Missing, invalid, and revoked tokens all answer
// 401 before any handler logic runs.
func RequireAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AuthHeader)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required.")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "Authentication required.")
					return
				}
				slog.Error("authenticate request", "error", err)
				writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, &Session{User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
