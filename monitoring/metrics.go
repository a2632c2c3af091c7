package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	ConflictChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_conflict_checks_total",
			Help: "Conflict checks performed, labeled by outcome",
		},
		[]string{"outcome"},
	)

	ExternalFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "external_api_fallbacks_total",
			Help: "External API calls degraded to demo data",
		},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "external_circuit_breaker_state",
			Help: "Circuit breaker state (1 for the active state)",
		},
		[]string{"state"},
	)
)

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ConflictChecks)
	prometheus.MustRegister(ExternalFallbacks)
	prometheus.MustRegister(breakerState)
}

// SetBreakerState выставляет 1 активному состоянию выключателя, 0 остальным.
func SetBreakerState(state string) {
	for _, s := range []string{"CLOSED", "OPEN", "HALF_OPEN"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		breakerState.WithLabelValues(s).Set(v)
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
