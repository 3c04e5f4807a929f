package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httputil"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/middleware"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// sessionKey is the context key for the authenticated session.
const sessionKey contextKey = "session"

// SessionAuth is middleware that resolves the bearer session ID in the
// Authorization header and stores the session in the request context. The
// request-scoped logger is rebuilt to carry the session fields.
func SessionAuth(sessions SessionService, base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), base)
				return
			}

			sess, err := sessions.Authenticate(r.Context(), id)
			if err != nil {
				httputil.WriteError(w, r, err, base)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = logger.WithSession(ctx, sess.ID, sess.ProfileID)
			next.ServeHTTP(w, middleware.Enrich(r.WithContext(ctx), base))
		})
	}
}

// sessionFromContext extracts the authenticated session from the request context.
func sessionFromContext(ctx context.Context) (*domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*domain.Session)
	return sess, ok && sess != nil
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
