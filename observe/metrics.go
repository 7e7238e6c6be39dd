package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/graphflow/graphflow/graph"
)

const namespace = "graphflow"

// Metrics is a graph.TraceHook exporting Prometheus metrics for runs and nodes.
//
// Exposed series:
//   - graphflow_runs_total{status}
//   - graphflow_node_executions_total{node,status}
//   - graphflow_node_duration_seconds{node}
//   - graphflow_inflight_nodes
type Metrics struct {
	runs         *prometheus.CounterVec
	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	inflight     prometheus.Gauge
}

var _ graph.TraceHook = (*Metrics)(nil)

// NewMetrics registers the collectors with reg. A nil reg uses the default
// Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed graph runs by outcome",
		}, []string{"status"}),
		nodeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Node executions by node and outcome",
		}, []string{"node", "status"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Node execution time",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"node"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_nodes",
			Help:      "Nodes currently executing",
		}),
	}
}

// OnEvent implements graph.TraceHook.
func (m *Metrics) OnEvent(ctx context.Context, span *graph.TraceSpan) {
	switch span.Event {
	case graph.TraceEventNodeStart:
		m.inflight.Inc()
	case graph.TraceEventNodeEnd, graph.TraceEventNodeError:
		m.inflight.Dec()
		m.nodeRuns.WithLabelValues(span.NodeName, status(span.Error)).Inc()
		m.nodeDuration.WithLabelValues(span.NodeName).Observe(span.Duration.Seconds())
	case graph.TraceEventGraphEnd:
		m.runs.WithLabelValues(status(span.Error)).Inc()
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
