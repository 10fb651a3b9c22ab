// Package metrics provides Prometheus instrumentation for webpool components.
//
// # Overview
//
// The registry carries two families of metrics:
//   - Thread pool: size, live and active workers, pending jobs, submitted,
//     completed and panicked job counters, job run and queue durations
//   - HTTP: accepted connections, requests by status code, request duration
//     and bytes written
//
// Every vector is labelled with the component name (pool_name or
// server_name) so several pools can share one registry.
//
// # Quick Start
//
//	registry := prometheus.NewRegistry()
//	m := metrics.NewRegistry(registry)
//
//	pool := threadpool.NewWithConfig(threadpool.Config{
//		WorkerCount: 4,
//		Name:        "http",
//		Metrics:     m,
//	})
//	defer pool.Shutdown()
//
//	http.Handle("/metrics", metrics.Handler(registry))
//
// # Disabled Metrics
//
// NewRegistryWithConfig returns nil when Config.Enabled is false. Components
// accept a nil *Registry and skip instrumentation entirely.
package metrics
