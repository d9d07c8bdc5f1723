// Package metrics holds the coordinator's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coordinator"

// Registry is separate from the default one so tests can build routers repeatedly.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	RoomsActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Rooms currently alive.",
	})
	RoomsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_created_total",
		Help:      "Rooms created.",
	})
	RoomsDestroyed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_destroyed_total",
		Help:      "Rooms destroyed after their last participant left.",
	})
	ParticipantsActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "participants_active",
		Help:      "Participants across all rooms.",
	})
	Successions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "creator_successions_total",
		Help:      "Creator promotions after the creator left or handed over.",
	})
	AccessDenied = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Denied joins and access checks by reason.",
	}, []string{"reason"})
	RPCRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "RPC calls by method and outcome kind.",
	}, []string{"method", "kind"})
	RPCDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC handling latency.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"method"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry at /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
