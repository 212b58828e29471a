// Package metrics exposes the connector's operational counters and
// histograms for scraping by Prometheus. It is purely observational: no
// component depends on a metric's value to make a decision.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric the connector publishes. Construct one
// with NewRegistry and register it against a prometheus.Registerer
// (typically prometheus.DefaultRegisterer) at startup.
type Registry struct {
	OpenOrders          prometheus.Gauge
	OrderStateTransitions *prometheus.CounterVec
	WSReconnects        *prometheus.CounterVec
	RESTLatency         *prometheus.HistogramVec
	OrderSubmitErrors   *prometheus.CounterVec
}

// NewRegistry constructs the metric set with the given namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		OpenOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_orders",
			Help:      "Number of non-terminal orders currently tracked.",
		}),
		OrderStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_state_transitions_total",
			Help:      "Count of order state transitions, labeled by resulting state.",
		}, []string{"state"}),
		WSReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_reconnects_total",
			Help:      "Count of WebSocket reconnect attempts, labeled by stream.",
		}, []string{"stream"}),
		RESTLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rest_call_latency_seconds",
			Help:      "Latency of REST calls to the venue, labeled by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		OrderSubmitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_submit_errors_total",
			Help:      "Count of order submission failures, labeled by failure reason text.",
		}, []string{"reason"}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration conflict — the same failure mode prometheus
// itself uses for programmer error at startup.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.OpenOrders,
		r.OrderStateTransitions,
		r.WSReconnects,
		r.RESTLatency,
		r.OrderSubmitErrors,
	)
}
