package middleware

import (
	"log/slog"
	"net/http"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

// RequestLogger returns middleware that stores a request-scoped logger in the
// context, enriched with whatever correlation, session, and trace fields are
// already present. Handlers retrieve it with logger.FromContext.
//
// Mount it after RequestLogging and Tracing. Handlers that authenticate a
// session later in the chain call Enrich again to add the session fields.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, Enrich(r, base))
		})
	}
}

// Enrich rebuilds the request-scoped logger from the fields in r's context.
func Enrich(r *http.Request, base *slog.Logger) *http.Request {
	ctx := r.Context()
	return r.WithContext(logger.NewContext(ctx, logger.WithContext(ctx, base)))
}
