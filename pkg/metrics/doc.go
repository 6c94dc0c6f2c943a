// Package metrics exposes Prometheus counters, gauges and a histogram for
// the store server, cache agent and CLI. Metrics are package-level vars
// registered in init(), the same pattern the rest of this stack uses;
// Handler serves them in Prometheus text exposition format.
package metrics
