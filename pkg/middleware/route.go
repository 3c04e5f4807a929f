package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests no chi route matched.
const unmatchedRoute = "unmatched"

// routePattern returns the chi pattern that served r, e.g.
// /api/v1/cart/lines/{lineId}/quantity. It is only complete after the
// router has run.
func routePattern(r *http.Request) (string, bool) {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return "", false
	}
	p := rc.RoutePattern()
	return p, p != ""
}
