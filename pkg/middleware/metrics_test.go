package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric returns the first series of c whose labels include want.
func findMetric(c prometheus.Collector, want map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var found *dto.Metric
	for m := range ch {
		if found != nil {
			continue
		}
		var d dto.Metric
		if m.Write(&d) != nil {
			continue
		}
		if hasLabels(&d, want) {
			found = &d
		}
	}
	return found
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func metricsRouter(service string, status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	h := func(w http.ResponseWriter, _ *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/api/v1/cart", h)
	r.Put("/api/v1/cart/lines/{lineId}/quantity", h)
	return r
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := metricsRouter("metrics-pattern", http.StatusOK)

	for _, id := range []string{"11", "12", "13"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/cart/lines/"+id+"/quantity", nil))
	}

	m := findMetric(httpRequestsTotal, map[string]string{
		"service": "metrics-pattern",
		"route":   "/api/v1/cart/lines/{lineId}/quantity",
		"status":  "200",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_RecordsStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable} {
		service := "metrics-status-" + http.StatusText(status)
		r := metricsRouter(service, status)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
		assert.Equal(t, status, rec.Code)

		m := findMetric(httpRequestsTotal, map[string]string{
			"service": service,
			"route":   "/api/v1/cart",
			"status":  strconv.Itoa(status),
		})
		require.NotNil(t, m, service)
	}
}

func TestPrometheusMetrics_ImplicitOK(t *testing.T) {
	r := metricsRouter("metrics-implicit", 0)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	m := findMetric(httpRequestsTotal, map[string]string{"service": "metrics-implicit", "status": "200"})
	require.NotNil(t, m)
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	r := metricsRouter("metrics-unmatched", http.StatusOK)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/nope/123", nil))

	m := findMetric(httpRequestsTotal, map[string]string{"service": "metrics-unmatched", "route": unmatchedRoute, "status": "404"})
	require.NotNil(t, m)
}

func TestPrometheusMetrics_Duration(t *testing.T) {
	r := metricsRouter("metrics-duration", http.StatusOK)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	m := findMetric(httpRequestDuration, map[string]string{"service": "metrics-duration", "method": "GET", "route": "/api/v1/cart"})
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_InFlight(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-inflight"))
	r.Get("/slow", func(w http.ResponseWriter, _ *http.Request) {
		if m := findMetric(httpRequestsInFlight, map[string]string{"service": "metrics-inflight"}); m != nil {
			during = m.GetGauge().GetValue()
		}
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, float64(1), during)
	m := findMetric(httpRequestsInFlight, map[string]string{"service": "metrics-inflight"})
	require.NotNil(t, m)
	assert.Equal(t, float64(0), m.GetGauge().GetValue())
}
