package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

const defaultCheckTimeout = 5 * time.Second

var dependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "dependency_up",
	Help: "1 when the last readiness probe of the dependency succeeded.",
}, []string{"dependency"})

// Checker probes one dependency. It must honor ctx cancellation.
type Checker func(ctx context.Context) error

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status    Status `json:"status"`
	Optional  bool   `json:"optional,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type dependency struct {
	name     string
	check    Checker
	optional bool
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	mu      sync.RWMutex
	deps    []dependency
	timeout time.Duration
}

// NewHandler returns a handler whose probes share a 5s deadline.
func NewHandler() *Handler {
	return &Handler{timeout: defaultCheckTimeout}
}

// WithTimeout overrides the shared probe deadline.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	h.timeout = d
	return h
}

// Register adds a dependency the service cannot serve without.
func (h *Handler) Register(name string, checker Checker) {
	h.add(dependency{name: name, check: checker})
}

// RegisterOptional adds a dependency whose failure only degrades readiness;
// carts are still served while the event bus is down.
func (h *Handler) RegisterOptional(name string, checker Checker) {
	h.add(dependency{name: name, check: checker, optional: true})
}

func (h *Handler) add(d dependency) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.deps {
		if h.deps[i].name == d.name {
			h.deps[i] = d
			return
		}
	}
	h.deps = append(h.deps, d)
}

func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler answers 503 only when a required dependency is down.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		code := http.StatusOK
		if resp.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, resp)
	}
}

// Check probes every dependency concurrently.
func (h *Handler) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	deps := append([]dependency(nil), h.deps...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(deps))
	var g errgroup.Group
	for i, d := range deps {
		g.Go(func() error {
			results[i] = probe(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	resp := Response{Status: StatusUp, Timestamp: time.Now().UTC(), Checks: make(map[string]CheckResult, len(deps))}
	for i, d := range deps {
		res := results[i]
		resp.Checks[d.name] = res
		switch {
		case res.Status == StatusUp:
		case !res.Optional:
			resp.Status = StatusDown
		case resp.Status == StatusUp:
			resp.Status = StatusDegraded
		}
	}
	return resp
}

func probe(ctx context.Context, d dependency) CheckResult {
	start := time.Now()
	err := d.check(ctx)
	res := CheckResult{Status: StatusUp, Optional: d.optional, LatencyMS: time.Since(start).Milliseconds()}

	up := 1.0
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
		up = 0
	}
	dependencyUp.WithLabelValues(d.name).Set(up)
	return res
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
