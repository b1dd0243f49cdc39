// Package metric provides Prometheus metrics for recordsvc.
//
//   - prometheus.go: private registry, HTTP and record operation metrics, HTTP handler
//   - collector.go: scrape-time collector for the record store size
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
