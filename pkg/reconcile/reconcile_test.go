package reconcile

import (
	"math"
	"testing"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

func TestBaselineFallsBackToLiveNodes(t *testing.T) {
	summary := models.Summary{
		Pools:          map[string]models.PoolStat{"P": {Cost: 0, Count: 0}},
		ProjectedPools: map[string]models.PoolStat{"P": {Cost: 15, Count: 2}},
	}
	nodes := []models.NodeView{
		{Name: "n1", Pool: "P", CostDaily: 10},
		{Name: "n2", Pool: "P", CostDaily: 5},
		{Name: "ghost", Pool: "P", CostDaily: 99, IsVirtual: true},
	}

	report := Reconcile(summary, nodes)
	p, ok := report.FindPool("P")
	if !ok {
		t.Fatal("Expected pool P in report")
	}

	if p.Baseline.Count != 2 {
		t.Errorf("Expected baseline count 2, got %d", p.Baseline.Count)
	}
	if math.Abs(p.Baseline.Cost-15) > 1e-9 {
		t.Errorf("Expected baseline cost 15, got %.2f", p.Baseline.Cost)
	}
	if p.IsNew {
		t.Error("Pool with live nodes must not be flagged new")
	}
	if p.CostTrend != Neutral || p.CountTrend != Neutral {
		t.Errorf("Expected neutral trends, got cost=%s count=%s", p.CostTrend, p.CountTrend)
	}
}

func TestDecreaseDelta(t *testing.T) {
	summary := models.Summary{
		Pools:          map[string]models.PoolStat{"P": {Cost: 100, Count: 2}},
		ProjectedPools: map[string]models.PoolStat{"P": {Cost: 80, Count: 1}},
	}

	p, _ := Reconcile(summary, nil).FindPool("P")

	if math.Abs(p.CostDelta-(-20)) > 1e-9 {
		t.Errorf("Expected cost delta -20, got %.2f", p.CostDelta)
	}
	if p.CountDelta != -1 {
		t.Errorf("Expected count delta -1, got %d", p.CountDelta)
	}
	if p.CostTrend != Decrease || p.CountTrend != Decrease {
		t.Errorf("Expected decrease, got cost=%s count=%s", p.CostTrend, p.CountTrend)
	}
}

func TestDefaultPoolBucket(t *testing.T) {
	summary := models.Summary{
		Pools:          map[string]models.PoolStat{models.DefaultPool: {}},
		ProjectedPools: map[string]models.PoolStat{models.DefaultPool: {Cost: 4, Count: 1}},
	}
	nodes := []models.NodeView{{Name: "loose", CostDaily: 4}}

	p, ok := Reconcile(summary, nodes).FindPool(models.DefaultPool)
	if !ok {
		t.Fatal("Expected default pool in report")
	}
	if p.Baseline.Count != 1 || p.Baseline.Cost != 4 {
		t.Errorf("Expected pool-less node counted under default, got %+v", p.Baseline)
	}
}

func TestNewAndRemovedPools(t *testing.T) {
	summary := models.Summary{
		Pools: map[string]models.PoolStat{
			"old": {Cost: 40, Count: 2},
		},
		ProjectedPools: map[string]models.PoolStat{
			"fresh": {Cost: 12, Count: 1},
		},
	}

	report := Reconcile(summary, nil)

	fresh, _ := report.FindPool("fresh")
	if !fresh.IsNew || fresh.IsRemoved {
		t.Errorf("Expected fresh to be new, got %+v", fresh)
	}
	if fresh.CostTrend != Increase || fresh.CountTrend != Increase {
		t.Errorf("Expected increase trends for new pool, got %s/%s", fresh.CostTrend, fresh.CountTrend)
	}

	old, _ := report.FindPool("old")
	if !old.IsRemoved || old.IsNew {
		t.Errorf("Expected old to be removed, got %+v", old)
	}
}

func TestCostTrendEpsilon(t *testing.T) {
	tests := []struct {
		delta float64
		want  Trend
	}{
		{0, Neutral},
		{0.0009, Neutral},
		{-0.0009, Neutral},
		{0.002, Increase},
		{-5, Decrease},
	}
	for _, tt := range tests {
		if got := CostTrend(tt.delta); got != tt.want {
			t.Errorf("CostTrend(%v): expected %s, got %s", tt.delta, tt.want, got)
		}
	}
}

func TestPoolsSortedByHistoricalCost(t *testing.T) {
	summary := models.Summary{
		Pools: map[string]models.PoolStat{
			"small":  {Cost: 5, Count: 1},
			"large":  {Cost: 50, Count: 3},
			"medium": {Cost: 20, Count: 2},
		},
		ProjectedPools: map[string]models.PoolStat{
			"small":  {Cost: 5, Count: 1},
			"large":  {Cost: 50, Count: 3},
			"medium": {Cost: 20, Count: 2},
			"added":  {Cost: 1, Count: 1},
		},
	}

	report := Reconcile(summary, nil)
	want := []string{"large", "medium", "small", "added"}
	if len(report.Pools) != len(want) {
		t.Fatalf("Expected %d pools, got %d", len(want), len(report.Pools))
	}
	for i, name := range want {
		if report.Pools[i].Pool != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, report.Pools[i].Pool)
		}
	}
}

func TestAggregateUsesGrandTotals(t *testing.T) {
	summary := models.Summary{
		Pools:              map[string]models.PoolStat{"a": {Cost: 0, Count: 0}, "b": {Cost: 10, Count: 2}},
		ProjectedPools:     map[string]models.PoolStat{"a": {Cost: 3, Count: 1}, "b": {Cost: 10, Count: 2}},
		TotalCostDaily:     10,
		ProjectedTotalCost: 13,
	}
	nodes := []models.NodeView{{Name: "a1", Pool: "a", CostDaily: 3}}

	total := Reconcile(summary, nodes).Total

	if total.Baseline.Cost != 10 || total.Projected.Cost != 13 {
		t.Errorf("Expected grand totals 10 -> 13, got %.2f -> %.2f", total.Baseline.Cost, total.Projected.Cost)
	}
	if total.Baseline.Count != 2 || total.Projected.Count != 3 {
		t.Errorf("Expected counts 2 -> 3 without live correction, got %d -> %d", total.Baseline.Count, total.Projected.Count)
	}
	if total.CostTrend != Increase || total.CountTrend != Increase {
		t.Errorf("Expected increase, got %s/%s", total.CostTrend, total.CountTrend)
	}
}
