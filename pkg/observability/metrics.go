package observability

import (
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus metrics for the console.
type Recorder struct {
	plansTotal     *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	refreshTotal   *prometheus.CounterVec
	refreshSeconds prometheus.Histogram
	poolCost       *prometheus.GaugeVec
	poolNodes      *prometheus.GaugeVec
	totalCost      *prometheus.GaugeVec
	highlighted    prometheus.Gauge
}

// NewRecorder registers the console collectors with reg.
// A nil reg uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		plansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "capacity_console_plans_total",
			Help: "Plan requests by outcome (ready, failed, unsatisfiable, stale)",
		}, []string{"outcome"}),
		mutationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "capacity_console_mutations_total",
			Help: "Mutations sent to the simulation backend by kind and outcome",
		}, []string{"kind", "outcome"}),
		refreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "capacity_console_refresh_total",
			Help: "State refreshes by outcome (applied, failed, stale)",
		}, []string{"outcome"}),
		refreshSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "capacity_console_refresh_duration_seconds",
			Help:    "Time spent fetching simulated state",
			Buckets: prometheus.DefBuckets,
		}),
		poolCost: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capacity_console_pool_cost_daily_usd",
			Help: "Daily pool cost by view (baseline, projected)",
		}, []string{"pool", "view"}),
		poolNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capacity_console_pool_nodes",
			Help: "Pool node count by view (baseline, projected)",
		}, []string{"pool", "view"}),
		totalCost: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "capacity_console_total_cost_daily_usd",
			Help: "Grand total daily cost by view (baseline, projected)",
		}, []string{"view"}),
		highlighted: f.NewGauge(prometheus.GaugeOpts{
			Name: "capacity_console_highlighted_nodes",
			Help: "Nodes currently flagged as affected by the last move",
		}),
	}
}

// RecordPlan counts a plan outcome
func (r *Recorder) RecordPlan(outcome string) {
	r.plansTotal.WithLabelValues(outcome).Inc()
}

// RecordMutation counts a mutation by kind
func (r *Recorder) RecordMutation(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.mutationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRefresh counts a refresh and its duration
func (r *Recorder) RecordRefresh(outcome string, seconds float64) {
	r.refreshTotal.WithLabelValues(outcome).Inc()
	r.refreshSeconds.Observe(seconds)
}

// RecordPools publishes the reconciled pool figures
func (r *Recorder) RecordPools(report reconcile.Report) {
	r.poolCost.Reset()
	r.poolNodes.Reset()
	for _, p := range report.Pools {
		r.poolCost.WithLabelValues(p.Pool, "baseline").Set(p.Baseline.Cost)
		r.poolCost.WithLabelValues(p.Pool, "projected").Set(p.Projected.Cost)
		r.poolNodes.WithLabelValues(p.Pool, "baseline").Set(float64(p.Baseline.Count))
		r.poolNodes.WithLabelValues(p.Pool, "projected").Set(float64(p.Projected.Count))
	}
	r.totalCost.WithLabelValues("baseline").Set(report.Total.Baseline.Cost)
	r.totalCost.WithLabelValues("projected").Set(report.Total.Projected.Cost)
}

// RecordHighlighted publishes the size of the highlight set
func (r *Recorder) RecordHighlighted(n int) {
	r.highlighted.Set(float64(n))
}
