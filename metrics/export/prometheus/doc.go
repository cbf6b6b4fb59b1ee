// Package prometheus exposes goSession client metrics to Prometheus.
//
// [NewPrometheusExporter] wraps a [goSession.Client] in a [prometheus.Collector] and
// serves it from a private registry through [PrometheusExporter.Handler]. Counter names
// are gosession_*_total; the single histogram is gosession_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate client state.
package prometheus
