package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
)

const metricsNamespace = "seatbelt_dashboard"

type metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the admin backend",
		}, []string{"operation", "method", "outcome"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Admin backend request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "logins_total",
			Help:      "Sign in attempts",
		}, []string{"outcome"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the dashboard",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest implements apiclient.Observer.
func (m *metrics) ObserveRequest(name, method string, kind apiclient.Kind, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(name, method, kind.String()).Inc()
	m.backendDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *metrics) observeLogin(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// instrument counts served requests by route pattern, so path parameters do
// not create new series.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := httpx.NewResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.Status())).Inc()
	})
}
