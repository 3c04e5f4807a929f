package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httputil"
)

// MountPprof serves the runtime profiles under /debug/pprof to callers
// inside allowed. With no usable prefix every caller is refused.
func MountPprof(r chi.Router, allowed []string, l *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(IPAllowlist(allowed, l))
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		r.Handle("/debug/pprof/{profile}", http.HandlerFunc(pprof.Index))
	})
}

// IPAllowlist refuses requests whose peer address is outside every prefix.
// Malformed prefixes are logged and skipped. Forwarded headers are ignored.
func IPAllowlist(prefixes []string, l *slog.Logger) func(http.Handler) http.Handler {
	allowed := parsePrefixes(prefixes, l)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !peerAllowed(r.RemoteAddr, allowed) {
				l.WarnContext(r.Context(), "request refused by ip allowlist",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteError(w, r, apperrors.Forbidden("address not allowed"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePrefixes(in []string, l *slog.Logger) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(in))
	for _, s := range in {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			l.Warn("skipping invalid allowlist prefix", slog.String("prefix", s), slog.String("error", err.Error()))
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

func peerAllowed(remoteAddr string, allowed []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
