// Package metric provides Prometheus metrics for kvmesh.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: collector reporting live database statistics
//
// Metrics include:
//
//   - Connection gauges and counters
//   - Command counters and latency histograms
//   - Decode error and notification counters
//   - Key and subscriber counts
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
