// Package metrics defines the Prometheus collectors for probe attempts,
// probe durations, node status, status transitions, and working-set
// size. The engine does not call into this package; cmd/monitor sets the
// node-status gauge from each engine update and the nodes-tracked gauge
// once at startup, and nothing calls RecordProbe or RecordStatusChange.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the package registers.
type Metrics struct {
	ProbeAttemptsTotal   *prometheus.CounterVec
	ProbeDurationSeconds *prometheus.HistogramVec
	NodeStatus           *prometheus.GaugeVec
	StatusChangesTotal   *prometheus.CounterVec
	NodesTracked         prometheus.Gauge
}

// New builds and registers every collector against registerer. Pass
// prometheus.DefaultRegisterer for the normal single-process case.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbeAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "net_monitor_probe_attempts_total",
				Help: "Total probe attempts, labeled by node, probe kind, and outcome.",
			},
			[]string{"node", "kind", "result"},
		),
		ProbeDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "net_monitor_probe_duration_seconds",
				Help:    "Probe round-trip duration in seconds.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"node", "kind"},
		),
		NodeStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "net_monitor_node_status",
				Help: "Current node status: 0=Offline, 1=Degraded, 2=Online.",
			},
			[]string{"node"},
		),
		StatusChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "net_monitor_status_changes_total",
				Help: "Total recorded status transitions, labeled by node and transition.",
			},
			[]string{"node", "from", "to"},
		),
		NodesTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "net_monitor_nodes_tracked",
				Help: "Number of nodes currently in the engine's working set.",
			},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.ProbeAttemptsTotal,
			m.ProbeDurationSeconds,
			m.NodeStatus,
			m.StatusChangesTotal,
			m.NodesTracked,
		)
	}

	return m
}

// RecordProbe records one probe attempt's outcome and latency.
func (m *Metrics) RecordProbe(node, kind string, ok bool, duration time.Duration) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.ProbeAttemptsTotal.WithLabelValues(node, kind, result).Inc()
	m.ProbeDurationSeconds.WithLabelValues(node, kind).Observe(duration.Seconds())
}

// statusValue maps a node status string to the gauge value documented
// on NodeStatus's help text.
func statusValue(status string) float64 {
	switch status {
	case "Online":
		return 2
	case "Degraded":
		return 1
	default:
		return 0
	}
}

// SetNodeStatus sets the node-status gauge for node.
func (m *Metrics) SetNodeStatus(node, status string) {
	m.NodeStatus.WithLabelValues(node).Set(statusValue(status))
}

// RecordStatusChange records a persisted transition.
func (m *Metrics) RecordStatusChange(node, from, to string) {
	m.StatusChangesTotal.WithLabelValues(node, from, to).Inc()
}

// SetNodesTracked sets the working-set size gauge.
func (m *Metrics) SetNodesTracked(n int) {
	m.NodesTracked.Set(float64(n))
}
