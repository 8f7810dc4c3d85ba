// Package metrics exports ingestion counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ingest_samples_total.
const (
	OutcomeACK             = "ack"
	OutcomeNACK            = "nack"
	OutcomeDataFormatFault = "data_format_fault"
	OutcomeValidationFault = "validation_fault"
)

// Metrics groups the collectors of the ingest service.
type Metrics struct {
	samples        *prometheus.CounterVec
	spikes         *prometheus.CounterVec
	sinkFailures   prometheus.Counter
	activeSessions prometheus.Gauge
	pushDuration   prometheus.Histogram
}

// New builds collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_samples_total",
			Help: "Pushed samples by outcome.",
		}, []string{"outcome"}),
		spikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_temperature_spikes_total",
			Help: "Temperature spikes detected between consecutive samples.",
		}, []string{"direction"}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_sink_failures_total",
			Help: "Log writes that failed and were converted to NACK.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingest_active_sessions",
			Help: "Sessions currently registered.",
		}),
		pushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_push_duration_seconds",
			Help:    "PushSample latency including log writes.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.samples, m.spikes, m.sinkFailures, m.activeSessions, m.pushDuration)
	}
	return m
}

// Sample counts one push outcome.
func (m *Metrics) Sample(outcome string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(outcome).Inc()
}

// Spike counts a temperature excursion.
func (m *Metrics) Spike(direction string) {
	if m == nil {
		return
	}
	m.spikes.WithLabelValues(direction).Inc()
}

// SinkFailure counts a failed log write.
func (m *Metrics) SinkFailure() {
	if m == nil {
		return
	}
	m.sinkFailures.Inc()
}

// ActiveSessions sets the gauge.
func (m *Metrics) ActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObservePush records push latency since start.
func (m *Metrics) ObservePush(start time.Time) {
	if m == nil {
		return
	}
	m.pushDuration.Observe(time.Since(start).Seconds())
}
