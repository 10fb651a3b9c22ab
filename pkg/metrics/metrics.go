// Package metrics provides Prometheus instrumentation for webpool components.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name unless Config.Namespace is set.
const DefaultNamespace = "webpool"

// Registry holds all metric instances for webpool components.
type Registry struct {
	// Thread Pool Metrics
	PoolSize         *prometheus.GaugeVec
	PoolLiveWorkers  *prometheus.GaugeVec
	PoolActive       *prometheus.GaugeVec
	PoolPending      *prometheus.GaugeVec
	JobsSubmitted    *prometheus.CounterVec
	JobsCompleted    *prometheus.CounterVec
	JobsPanicked     *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	JobQueueDuration *prometheus.HistogramVec

	// HTTP Metrics
	ConnectionsAccepted *prometheus.CounterVec
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	BytesWritten        *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by webpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

// NewRegistryWithConfig creates a registry from a Config. It returns nil when
// metrics are disabled, which every instrumented component treats as a no-op.
func NewRegistryWithConfig(config Config) *Registry {
	if !config.Enabled {
		return nil
	}

	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(config.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(config.Labels, reg)
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return newRegistry(reg, namespace)
}

func newRegistry(reg prometheus.Registerer, namespace string) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Thread Pool Metrics
		PoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "size",
				Help:      "Number of workers the pool was created with",
			},
			[]string{"pool_name"},
		),

		PoolLiveWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "live_workers",
				Help:      "Number of worker goroutines currently running their receive loop",
			},
			[]string{"pool_name"},
		),

		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing a job",
			},
			[]string{"pool_name"},
		),

		PoolPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "pending_jobs",
				Help:      "Number of jobs submitted but not yet picked up by a worker",
			},
			[]string{"pool_name"},
		),

		JobsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "jobs_submitted_total",
				Help:      "Total number of jobs submitted",
			},
			[]string{"pool_name"},
		),

		JobsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "jobs_completed_total",
				Help:      "Total number of jobs that returned, including panicked jobs",
			},
			[]string{"pool_name"},
		),

		JobsPanicked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "jobs_panicked_total",
				Help:      "Total number of jobs that panicked",
			},
			[]string{"pool_name"},
		),

		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "job_duration_seconds",
				Help:      "Time spent executing jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		JobQueueDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "threadpool",
				Name:      "job_queue_duration_seconds",
				Help:      "Time jobs spent in the control channel before a worker received them",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		// HTTP Metrics
		ConnectionsAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "connections_accepted_total",
				Help:      "Total number of accepted TCP connections",
			},
			[]string{"server_name"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of requests answered, by status code",
			},
			[]string{"server_name", "code"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Time spent handling a connection",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"server_name"},
		),

		BytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "bytes_written_total",
				Help:      "Total response bytes written",
			},
			[]string{"server_name"},
		),
	}
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
// A nil gatherer exposes prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
