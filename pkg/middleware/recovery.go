package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httputil"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

var panicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_panics_recovered_total",
	Help: "Handler panics turned into 500 responses.",
}, []string{"route"})

// Recovery turns a handler panic into a 500 in the JSON envelope. If the
// handler already started the response only the log entry is written.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				route, ok := routePattern(r)
				if !ok {
					route = unmatchedRoute
				}
				panicsRecovered.WithLabelValues(route).Inc()
				l.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("route", route),
				)

				if sw.wroteHeader {
					return
				}
				httputil.WriteJSON(sw, http.StatusInternalServerError, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:      "INTERNAL_ERROR",
						Message:   "an internal error occurred",
						RequestID: logger.CorrelationIDFromContext(r.Context()),
					},
				})
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
