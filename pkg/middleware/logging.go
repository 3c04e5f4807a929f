package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

// CorrelationHeader carries the request correlation ID in both directions.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationIDLen = 128

// RequestLogging assigns the correlation ID, echoes it on the response and
// writes one access log line per request. Caller-provided IDs are kept when
// they are short printable tokens; anything else is replaced. Health probes
// are logged at debug.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := correlationID(r.Header.Get(CorrelationHeader))
			ctx := logger.WithCorrelationID(r.Context(), id)
			r = r.WithContext(ctx)
			w.Header().Set(CorrelationHeader, id)

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route, ok := routePattern(r)
			if !ok {
				route = unmatchedRoute
			}
			l.LogAttrs(ctx, accessLevel(r.URL.Path, sw.statusCode), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", sw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", sw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", id),
			)
		})
	}
}

func correlationID(in string) string {
	if in == "" || len(in) > maxCorrelationIDLen {
		return uuid.NewString()
	}
	for _, c := range in {
		if c <= ' ' || c > '~' {
			return uuid.NewString()
		}
	}
	return in
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelWarn
	case strings.HasPrefix(path, "/health/"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
