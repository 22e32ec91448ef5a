// Package metrics exposes Prometheus counters for entitlement resolution,
// webhook deliveries and the background task queue.
package metrics
