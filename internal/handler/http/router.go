package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/cartview"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/format"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/health"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "storefront-cart"

// CartService is the cart use case surface the handlers need.
type CartService interface {
	View(ctx context.Context, sess *domain.Session) (*cartview.View, error)
	LoadView(ctx context.Context, sess *domain.Session) (*cartview.View, error)
	SetSelection(ctx context.Context, sess *domain.Session, lineID string, selected bool) (cartview.Snapshot, error)
	SetQuantity(ctx context.Context, sess *domain.Session, lineID string, quantity int) (cartview.Snapshot, error)
	DeleteLine(ctx context.Context, sess *domain.Session, lineID string) (cartview.Snapshot, error)
	SelectAll(ctx context.Context, sess *domain.Session, selected bool) (cartview.Snapshot, error)
}

// SessionService is the session use case surface the handlers need.
type SessionService interface {
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Authenticate(ctx context.Context, sessionID string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// RouterConfig carries the HTTP-level settings of the router.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	// PprofCIDRs mounts /debug/pprof for these peers when non-empty.
	PprofCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	carts CartService,
	sessions SessionService,
	formatter *format.Formatter,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.MountPprof(r, cfg.PprofCIDRs, logger)
	}

	authHandler := NewAuthHandler(sessions, logger)
	cartHandler := NewCartHandler(carts, formatter, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(SessionAuth(sessions, logger))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart/refresh", cartHandler.RefreshCart)
			r.Put("/cart/selection", cartHandler.SelectAll)
			r.Put("/cart/lines/{lineId}/selection", cartHandler.SetSelection)
			r.Put("/cart/lines/{lineId}/quantity", cartHandler.SetQuantity)
			r.Delete("/cart/lines/{lineId}", cartHandler.DeleteLine)
		})
	})

	return r
}
