package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arborworks/arbor/pkg/domain"
)

// Metrics holds the Prometheus collectors for engine activity.
type Metrics struct {
	nodesTotal *prometheus.CounterVec
	nodesOpen  *prometheus.GaugeVec
	toolsTotal *prometheus.CounterVec
	runsTotal  *prometheus.CounterVec
	afterTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on the given registerer.
// Pass prometheus.DefaultRegisterer to feed the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "nodes_executed_total",
			Help:      "Node executions by type, category and final status.",
		}, []string{"type", "category", "status"}),
		nodesOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arbor",
			Name:      "nodes_in_flight",
			Help:      "Nodes currently executing.",
		}, []string{"category"}),
		toolsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "tool_invocations_total",
			Help:      "Registry method invocations by tool group and outcome.",
		}, []string{"type", "method", "outcome"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "runs_total",
			Help:      "Main chain completions by definition and status.",
		}, []string{"definition", "status"}),
		afterTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "after_phases_total",
			Help:      "Background phase settlements by definition and status.",
		}, []string{"definition", "status"}),
	}
}

// Hooks returns lifecycle hooks feeding the collectors. Merge them with any
// other hooks via domain.LifecycleHooks.Merge.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(_ context.Context, evt *domain.NodeEvent) {
			m.nodesOpen.WithLabelValues(string(evt.Category)).Inc()
		},
		OnNodeFinish: func(_ context.Context, evt *domain.NodeEvent) {
			m.nodesOpen.WithLabelValues(string(evt.Category)).Dec()
			m.nodesTotal.WithLabelValues(evt.NodeType, string(evt.Category), string(evt.Status)).Inc()
		},
		OnToolInvoke: func(_ context.Context, evt *domain.ToolEvent) {
			outcome := "ok"
			if evt.IsError {
				outcome = "error"
			}
			m.toolsTotal.WithLabelValues(evt.NodeType, evt.Method, outcome).Inc()
		},
		OnRunFinish: func(_ context.Context, evt *domain.RunEvent) {
			m.runsTotal.WithLabelValues(evt.Definition, string(evt.Status)).Inc()
		},
		OnAfterFinish: func(_ context.Context, evt *domain.RunEvent) {
			m.afterTotal.WithLabelValues(evt.Definition, string(evt.Status)).Inc()
		},
	}
}
