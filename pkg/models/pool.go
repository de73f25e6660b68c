package models

// PoolStat aggregates one resource pool
type PoolStat struct {
	Count int     `json:"nodeCount"`
	Cost  float64 `json:"costDaily"`
}

// IsZero reports whether the stat carries neither nodes nor cost
func (p PoolStat) IsZero() bool {
	return p.Count == 0 && p.Cost == 0
}

// Summary holds the historical and projected cost figures reported by the backend
type Summary struct {
	Pools              map[string]PoolStat `json:"pools"`
	ProjectedPools     map[string]PoolStat `json:"projectedPools"`
	TotalCostDaily     float64             `json:"totalCostDaily"`
	ProjectedTotalCost float64             `json:"projectedTotalCost"`
}
