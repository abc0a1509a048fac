package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-group-relay/internal/infrastructure/hub"
)

const namespace = "group_relay"

// Delivery outcome label values.
const (
	OutcomeDelivered = "delivered"
	OutcomeTransient = "transient"
	OutcomePermanent = "permanent"
)

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// HubMetrics records registry and dispatcher activity. It implements
// hub.Recorder.
type HubMetrics struct {
	Groups            prometheus.Gauge
	Connections       prometheus.Gauge
	Broadcasts        prometheus.Counter
	Deliveries        *prometheus.CounterVec
	BroadcastDuration prometheus.Histogram
}

var _ hub.Recorder = (*HubMetrics)(nil)

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "groups",
			Help:      "Number of groups with at least one member.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "connections",
			Help:      "Number of registered member connections.",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "broadcasts_total",
			Help:      "Total number of broadcasts dispatched.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "deliveries_total",
			Help:      "Per-member delivery attempts by outcome.",
		}, []string{"outcome"}),
		BroadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to attempt delivery to every member of a group.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}

	reg.MustRegister(m.Groups, m.Connections, m.Broadcasts, m.Deliveries, m.BroadcastDuration)
	return m
}

func (m *HubMetrics) MembershipChanged(groups, connections int) {
	m.Groups.Set(float64(groups))
	m.Connections.Set(float64(connections))
}

func (m *HubMetrics) BroadcastCompleted(report *hub.DeliveryReport, elapsed time.Duration) {
	m.Broadcasts.Inc()
	m.BroadcastDuration.Observe(elapsed.Seconds())
	m.Deliveries.WithLabelValues(OutcomeDelivered).Add(float64(report.Delivered))

	for _, f := range report.Failures {
		if f.Permanent {
			m.Deliveries.WithLabelValues(OutcomePermanent).Inc()
		} else {
			m.Deliveries.WithLabelValues(OutcomeTransient).Inc()
		}
	}
}
