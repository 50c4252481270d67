package corpus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bridge-lin/server/lin"
)

// Result labels besides the lin error kinds.
const (
	ResultOK        = "ok"
	ResultReadError = "ReadError"
)

// Metrics counts decode outcomes on a private registry.
type Metrics struct {
	Registry *prometheus.Registry
	decodes  *prometheus.CounterVec
	seconds  prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_lin_decodes_total",
			Help: "LIN files decoded, by result (ok or error kind).",
		}, []string{"result"}),
		seconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bridge_lin_decode_seconds",
			Help:    "Time to read and decode one LIN file.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.decodes, m.seconds)
	// Every result label starts at zero.
	m.decodes.WithLabelValues(ResultOK)
	m.decodes.WithLabelValues(ResultReadError)
	for _, k := range lin.Kinds {
		m.decodes.WithLabelValues(k.String())
	}
	return m
}

// Observe records one decode. A nil Metrics ignores it.
func (m *Metrics) Observe(r Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.decodes.WithLabelValues(r.Label()).Inc()
	m.seconds.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
