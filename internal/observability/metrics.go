// Package observability owns the metrics registry of a run and pushes it to a
// Prometheus Pushgateway when one is configured.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Run      *metrics.RunMetrics
}

// NewMetrics creates a registry and the run collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	runMetrics, err := metrics.NewRunMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Run:      runMetrics,
	}, nil
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push replaces the metrics of job on the Pushgateway at url. instance is added as
// an instance grouping label so concurrent runs on different hosts do not collide.
func (m *Metrics) Push(ctx context.Context, url, job, instance string, client *http.Client) error {
	pusher := push.New(url, job).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if client != nil {
		pusher = pusher.Client(client)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return errors.New(fmt.Errorf("push metrics to %s: %w", url, err)).
			Component("metrics").
			Category(errors.CategoryIntegration).
			Context("job", job).
			Build()
	}
	return nil
}
