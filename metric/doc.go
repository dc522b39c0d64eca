// Package metric provides Prometheus-based metrics collection for the
// streaming service.
//
// A single MetricsRegistry owns the Prometheus registry for the process.
// Core platform metrics (service status, delivery counters, client
// gauges, producer process accounting) are registered at construction;
// components register their own collectors through the MetricsRegistrar
// interface under a service-scoped key, which rejects duplicate
// registrations before they reach Prometheus.
//
// Components treat a nil registry as "metrics disabled" and skip all
// instrumentation, so tests and embedded use never need a registry.
//
// The optional Server exposes the registry over HTTP on a dedicated
// port for deployments that scrape metrics separately from the main
// gateway listener.
package metric
