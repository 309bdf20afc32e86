package convertd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by Metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeUnsupported = "unsupported"
	OutcomeFailed      = "failed"
	OutcomeStaging     = "staging"
	OutcomeTimeout     = "timeout"
)

// Metrics collects dispatcher observations.
type Metrics struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

// NewMetrics creates the dispatcher collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "convertd",
			Name:      "conversions_total",
			Help:      "Conversions attempted, by converter and outcome.",
		}, []string{"converter", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "convertd",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent inside converter modules.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"converter"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "convertd",
			Name:      "conversions_in_flight",
			Help:      "Conversions currently holding a worker slot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.conversions, m.duration, m.inFlight)
	}
	return m
}

func (m *Metrics) observe(converter, outcome string) {
	if m == nil {
		return
	}
	if converter == "" {
		converter = "none"
	}
	m.conversions.WithLabelValues(converter, outcome).Inc()
}

func (m *Metrics) observeDuration(converter string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(converter).Observe(d.Seconds())
}

func (m *Metrics) slotAcquired() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) slotReleased() {
	if m != nil {
		m.inFlight.Dec()
	}
}
