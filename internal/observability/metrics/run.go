package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics contains the Prometheus metrics of one notifier run.
type RunMetrics struct {
	ContactsLoaded     prometheus.Gauge
	SMSTotal           *prometheus.CounterVec
	SMSDuration        prometheus.Histogram
	ConfirmationsTotal *prometheus.CounterVec
	RunDuration        prometheus.Gauge
	LastSuccessTime    prometheus.Gauge

	registry *prometheus.Registry
}

// NewRunMetrics creates the run metrics and registers them with registry.
func NewRunMetrics(registry *prometheus.Registry) (*RunMetrics, error) {
	m := &RunMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register run metrics: %w", err)
	}
	return m, nil
}

func (m *RunMetrics) initMetrics() {
	m.ContactsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_contacts_loaded",
		Help: "Number of contacts loaded for the run",
	})

	m.SMSTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_sms_total",
			Help: "SMS send attempts by outcome (accepted, rejected, not_delivered)",
		},
		[]string{"outcome"},
	)

	m.SMSDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "notifier_sms_duration_seconds",
		Help:    "Time taken for one SMS provider call",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	m.ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_confirmations_total",
			Help: "Confirmation emails by outcome (sent, failed, skipped, no_address)",
		},
		[]string{"outcome"},
	)

	m.RunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_run_duration_seconds",
		Help: "Duration of the last run",
	})

	m.LastSuccessTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notifier_last_success_timestamp_seconds",
		Help: "Unix time of the last run that completed without a fatal error",
	})
}

// Collect implements the prometheus.Collector interface.
func (m *RunMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ContactsLoaded.Collect(ch)
	m.SMSTotal.Collect(ch)
	m.SMSDuration.Collect(ch)
	m.ConfirmationsTotal.Collect(ch)
	m.RunDuration.Collect(ch)
	m.LastSuccessTime.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *RunMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ContactsLoaded.Describe(ch)
	m.SMSTotal.Describe(ch)
	m.SMSDuration.Describe(ch)
	m.ConfirmationsTotal.Describe(ch)
	m.RunDuration.Describe(ch)
	m.LastSuccessTime.Describe(ch)
}

// RecordContacts implements Recorder.
func (m *RunMetrics) RecordContacts(count int) {
	m.ContactsLoaded.Set(float64(count))
}

// RecordSMS implements Recorder.
func (m *RunMetrics) RecordSMS(outcome string, seconds float64) {
	m.SMSTotal.WithLabelValues(outcome).Inc()
	m.SMSDuration.Observe(seconds)
}

// RecordConfirmation implements Recorder.
func (m *RunMetrics) RecordConfirmation(outcome string) {
	m.ConfirmationsTotal.WithLabelValues(outcome).Inc()
}

// RecordRun implements Recorder.
func (m *RunMetrics) RecordRun(seconds float64, success bool) {
	m.RunDuration.Set(seconds)
	if success {
		m.LastSuccessTime.Set(float64(time.Now().Unix()))
	}
}
