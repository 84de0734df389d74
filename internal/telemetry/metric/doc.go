// Package metric exposes KevaDB server metrics in Prometheus format:
// connection lifecycle counts, per-command execution counters, and
// store-level gauges sampled on scrape.
package metric
