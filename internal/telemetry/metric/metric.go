// Package metric provides Prometheus metrics for KevaDB.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every KevaDB metric name.
const namespace = "keva"

// Metrics holds all server metrics, registered on a private registry
// so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsTotal    prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ConnectionsRejected *prometheus.CounterVec

	CommandsTotal      *prometheus.CounterVec
	CommandErrorsTotal prometheus.Counter
}

// Options supplies sampling callbacks for gauge-style store metrics.
type Options struct {
	// Keys reports the current number of live keys.
	Keys func() float64
	// ExpiredKeys reports the cumulative count of lazily evicted keys.
	ExpiredKeys func() float64
}

// New creates and registers the KevaDB metric set.
func New(opts Options) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections rejected before serving, by reason.",
		}, []string{"reason"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by command name.",
		}, []string{"command"}),
		CommandErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Commands that produced an error reply.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.ConnectionsRejected,
		m.CommandsTotal,
		m.CommandErrorsTotal,
	)

	if opts.Keys != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keys",
			Help:      "Number of live keys in the store.",
		}, opts.Keys))
	}
	if opts.ExpiredKeys != nil {
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_total",
			Help:      "Keys removed because their TTL elapsed.",
		}, opts.ExpiredKeys))
	}

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ConnOpened records an accepted connection.
func (m *Metrics) ConnOpened() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// ConnClosed records a finished connection.
func (m *Metrics) ConnClosed() {
	m.ConnectionsActive.Dec()
}

// ConnRejected records a connection refused before serving.
func (m *Metrics) ConnRejected(reason string) {
	m.ConnectionsRejected.WithLabelValues(reason).Inc()
}

// ObserveCommand records one executed command. Wire this as the
// command handler's observer.
func (m *Metrics) ObserveCommand(name string, isErr bool) {
	m.CommandsTotal.WithLabelValues(name).Inc()
	if isErr {
		m.CommandErrorsTotal.Inc()
	}
}
