package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	limited  prometheus.Counter
}

// NewMetrics registra los colectores HTTP en reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tareas_http_requests_total",
				Help: "Peticiones HTTP atendidas",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tareas_http_request_duration_seconds",
				Help:    "Latencia de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		limited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tareas_rate_limited_total",
				Help: "Peticiones rechazadas por el limitador",
			},
		),
	}

	reg.MustRegister(m.requests, m.duration, m.limited)
	return m
}

// Instrument etiqueta por patrón de ruta de chi para no disparar la cardinalidad con los ids.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) rateLimited() {
	if m == nil {
		return
	}
	m.limited.Inc()
}
