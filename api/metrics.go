// ABOUTME: Prometheus instrumentation for outgoing backend requests
// ABOUTME: Counts requests by status/method and observes latency around the transport
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors wrapped around a client's transport.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mbgctl",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend requests by status code and method.",
		}, []string{"code", "method"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mbgctl",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mbgctl",
			Subsystem: "api",
			Name:      "requests_in_flight",
			Help:      "Backend requests currently awaiting a response.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.InFlight)
	}
	return m
}

func (m *Metrics) wrap(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(m.InFlight,
		promhttp.InstrumentRoundTripperCounter(m.Requests,
			promhttp.InstrumentRoundTripperDuration(m.Duration, next),
		),
	)
}
