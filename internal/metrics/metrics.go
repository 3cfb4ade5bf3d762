// Package metrics registers the Prometheus metrics for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsIssued    *prometheus.CounterVec
	Validations      *prometheus.CounterVec
	CodeRetries      prometheus.Counter
	PaymentUpdates   prometheus.Counter
	EventCacheHits   prometheus.Counter
	EventCacheMisses prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RecordsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eventgate_records_issued_total",
			Help: "Total records issued, by record kind.",
		}, []string{"kind"}),
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eventgate_validations_total",
			Help: "Total validation attempts, by outcome.",
		}, []string{"outcome"}),
		CodeRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_code_collision_retries_total",
			Help: "Total short-code generation retries caused by collisions.",
		}),
		PaymentUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_payment_updates_total",
			Help: "Total payment settlement facts written by the external collaborator.",
		}),
		EventCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_event_cache_hits_total",
			Help: "Total event-config cache hits.",
		}),
		EventCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventgate_event_cache_misses_total",
			Help: "Total event-config cache misses.",
		}),
	}
}
