package observability

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	NodeExecutions *prometheus.CounterVec
	NodeLatency    *prometheus.HistogramVec
	RunTokens      prometheus.Counter
	RunCost        prometheus.Counter
	Runs           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_node_executions_total",
				Help: "Total number of node executions by type and terminal status",
			},
			[]string{"type", "status"},
		),
		NodeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_node_latency_seconds",
				Help:    "Duration of node executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		RunTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_run_tokens_total",
			Help: "Total tokens consumed by finished runs",
		}),
		RunCost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_run_cost_total",
			Help: "Total estimated cost in USD of finished runs",
		}),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_runs_total",
				Help: "Total number of finished runs by status",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeExecutions, m.NodeLatency, m.RunTokens, m.RunCost, m.Runs)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeExecutions.WithLabelValues(string(e.NodeType), string(e.Status)).Inc()
			if e.Result != nil && e.Status != domain.NodeStatusSkipped {
				m.NodeLatency.WithLabelValues(string(e.NodeType)).Observe(float64(e.Result.LatencyMs) / 1000)
			}
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			if e.Result == nil {
				return
			}
			m.Runs.WithLabelValues(string(e.Result.Status)).Inc()
			m.RunTokens.Add(float64(e.Result.TotalTokens))
			if e.Result.TotalCost > 0 {
				m.RunCost.Add(e.Result.TotalCost)
			}
		},
	}
}
