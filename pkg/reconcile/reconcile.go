package reconcile

import (
	"cmp"
	"math"
	"slices"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

// CostEpsilon is the smallest cost, in USD/day, treated as a real value
const CostEpsilon = 1e-3

// Trend classifies a delta for display
type Trend string

const (
	Increase Trend = "increase"
	Decrease Trend = "decrease"
	Neutral  Trend = "neutral"
)

// PoolDelta is the display record for one pool
type PoolDelta struct {
	Pool string `json:"pool"`

	Historical models.PoolStat `json:"historical"`
	Live       models.PoolStat `json:"live"`
	Baseline   models.PoolStat `json:"baseline"`
	Projected  models.PoolStat `json:"projected"`

	CostDelta  float64 `json:"costDelta"`
	CountDelta int     `json:"countDelta"`
	CostTrend  Trend   `json:"costTrend"`
	CountTrend Trend   `json:"countTrend"`

	IsNew     bool `json:"isNew"`
	IsRemoved bool `json:"isRemoved"`
}

// Aggregate is the all-pools total, taken from the backend's grand totals
type Aggregate struct {
	Baseline   models.PoolStat `json:"baseline"`
	Projected  models.PoolStat `json:"projected"`
	CostDelta  float64         `json:"costDelta"`
	CountDelta int             `json:"countDelta"`
	CostTrend  Trend           `json:"costTrend"`
	CountTrend Trend           `json:"countTrend"`
}

// Report is the output of a reconciliation pass
type Report struct {
	Pools []PoolDelta `json:"pools"`
	Total Aggregate   `json:"total"`
}

// FindPool returns the record for the named pool
func (r Report) FindPool(pool string) (PoolDelta, bool) {
	for _, p := range r.Pools {
		if p.Pool == pool {
			return p, true
		}
	}
	return PoolDelta{}, false
}

// LiveStats counts real nodes and sums their cost per pool.
// Nodes without a pool are bucketed under models.DefaultPool.
func LiveStats(nodes []models.NodeView) map[string]models.PoolStat {
	stats := make(map[string]models.PoolStat)
	for _, n := range nodes {
		if n.IsVirtual {
			continue
		}
		s := stats[n.PoolOrDefault()]
		s.Count++
		s.Cost += n.CostDaily
		stats[n.PoolOrDefault()] = s
	}
	return stats
}

// Baseline corrects a historical figure with live data where the history is empty
func Baseline(historical, live models.PoolStat) models.PoolStat {
	b := historical
	if historical.Count <= 0 {
		b.Count = live.Count
	}
	if historical.Cost <= CostEpsilon {
		b.Cost = live.Cost
	}
	return b
}

// CostTrend classifies a cost delta
func CostTrend(delta float64) Trend {
	switch {
	case math.Abs(delta) < CostEpsilon:
		return Neutral
	case delta > 0:
		return Increase
	default:
		return Decrease
	}
}

// CountTrend classifies a node count delta
func CountTrend(delta int) Trend {
	switch {
	case delta > 0:
		return Increase
	case delta < 0:
		return Decrease
	default:
		return Neutral
	}
}

// Reconcile merges historical and projected pool stats with the live node list
func Reconcile(summary models.Summary, nodes []models.NodeView) Report {
	live := LiveStats(nodes)

	seen := make(map[string]bool)
	var pools []string
	for _, m := range []map[string]models.PoolStat{summary.Pools, summary.ProjectedPools} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				pools = append(pools, name)
			}
		}
	}

	report := Report{Pools: make([]PoolDelta, 0, len(pools))}
	for _, name := range pools {
		report.Pools = append(report.Pools, reconcilePool(name, summary.Pools[name], summary.ProjectedPools[name], live[name]))
	}

	slices.SortFunc(report.Pools, func(a, b PoolDelta) int {
		if c := cmp.Compare(b.Historical.Cost, a.Historical.Cost); c != 0 {
			return c
		}
		return cmp.Compare(a.Pool, b.Pool)
	})

	report.Total = aggregate(summary)
	return report
}

func reconcilePool(name string, historical, projected, live models.PoolStat) PoolDelta {
	baseline := Baseline(historical, live)
	d := PoolDelta{
		Pool:       name,
		Historical: historical,
		Live:       live,
		Baseline:   baseline,
		Projected:  projected,
		CostDelta:  projected.Cost - baseline.Cost,
		CountDelta: projected.Count - baseline.Count,
	}
	d.CostTrend = CostTrend(d.CostDelta)
	d.CountTrend = CountTrend(d.CountDelta)
	d.IsNew = baseline.IsZero() && !projected.IsZero()
	d.IsRemoved = !baseline.IsZero() && projected.IsZero()
	return d
}

func aggregate(summary models.Summary) Aggregate {
	var a Aggregate
	for _, s := range summary.Pools {
		a.Baseline.Count += s.Count
	}
	for _, s := range summary.ProjectedPools {
		a.Projected.Count += s.Count
	}
	a.Baseline.Cost = summary.TotalCostDaily
	a.Projected.Cost = summary.ProjectedTotalCost

	a.CostDelta = a.Projected.Cost - a.Baseline.Cost
	a.CountDelta = a.Projected.Count - a.Baseline.Count
	a.CostTrend = CostTrend(a.CostDelta)
	a.CountTrend = CountTrend(a.CountDelta)
	return a
}
