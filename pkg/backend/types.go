package backend

// Wire types of the simulation backend. Field names follow its JSON.

type NodeParts struct {
	GFWCPU   int64 `json:"gfw_cpu_m"`
	DSCPU    int64 `json:"ds_cpu_m"`
	OtherCPU int64 `json:"other_cpu_m"`
	GFWMem   int64 `json:"gfw_mem_b"`
	DSMem    int64 `json:"ds_mem_b"`
	OtherMem int64 `json:"other_mem_b"`
}

type Node struct {
	Node     string `json:"node"`
	Nodepool string `json:"nodepool"`
	Instance string `json:"instance"`

	AllocCPU    int64 `json:"alloc_cpu_m"`
	AllocMem    int64 `json:"alloc_mem_b"`
	SumReqCPU   int64 `json:"sum_req_cpu_m"`
	SumReqMem   int64 `json:"sum_req_mem_b"`
	SumUsageCPU int64 `json:"sum_usage_cpu_m"`
	SumUsageMem int64 `json:"sum_usage_mem_b"`

	CostDailyUSD float64   `json:"cost_daily_usd"`
	Parts        NodeParts `json:"parts"`
	IsVirtual    bool      `json:"is_virtual"`
	PriceMissing bool      `json:"price_missing"`
}

type Pod struct {
	PodID     string `json:"pod_id"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	OwnerKind string `json:"owner_kind,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`

	IsGFW    bool `json:"is_gfw"`
	IsDaemon bool `json:"is_daemon"`
	IsSystem bool `json:"is_system"`

	ReqCPU      int64    `json:"req_cpu_m"`
	ReqMem      int64    `json:"req_mem_b"`
	UsageCPU    *int64   `json:"usage_cpu_m,omitempty"`
	UsageMem    *int64   `json:"usage_mem_b,omitempty"`
	ActiveRatio *float64 `json:"active_ratio,omitempty"`
}

type PoolStat struct {
	Cost      float64 `json:"cost"`
	NodeCount int     `json:"node_count"`
}

type Summary struct {
	PoolStats             map[string]PoolStat `json:"pool_stats"`
	ProjectedPoolStats    map[string]PoolStat `json:"projected_pool_stats"`
	TotalCostDailyUSD     float64             `json:"total_cost_daily_usd"`
	ProjectedTotalCostUSD float64             `json:"projected_total_cost_usd"`
}

type LogEntry struct {
	TS      float64        `json:"ts"` // unix seconds
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type SimulateResponse struct {
	Nodes      []Node              `json:"nodes"`
	PodsByNode map[string][]Pod    `json:"pods_by_node"`
	Summary    Summary             `json:"summary"`
	Logs       []LogEntry          `json:"logs"`
	Violations map[string][]string `json:"violations"`
}

type PlanMoveRequest struct {
	PodID      string `json:"pod_id"`
	TargetNode string `json:"target_node,omitempty"`
	TargetPool string `json:"target_pool,omitempty"`
}

type Toleration struct {
	Key               string `json:"key,omitempty"`
	Operator          string `json:"operator,omitempty"`
	Value             string `json:"value,omitempty"`
	Effect            string `json:"effect,omitempty"`
	TolerationSeconds *int64 `json:"tolerationSeconds,omitempty"`
}

type PlanMoveResponse struct {
	TargetNode   string            `json:"target_node,omitempty"`
	TargetPool   string            `json:"target_pool,omitempty"`
	ReqCPU       int64             `json:"req_cpu_m"`
	ReqMem       int64             `json:"req_mem_b"`
	Tolerations  []Toleration      `json:"tolerations"`
	NodeSelector map[string]string `json:"node_selector"`
	OwnerKind    string            `json:"owner_kind,omitempty"`
	OwnerName    string            `json:"owner_name,omitempty"`
}

type Overrides struct {
	ReqCPU       *int64            `json:"req_cpu_m,omitempty"`
	ReqMem       *int64            `json:"req_mem_b,omitempty"`
	Tolerations  []Toleration      `json:"tolerations,omitempty"`
	NodeSelector map[string]string `json:"node_selector,omitempty"`
}

// Operation is one entry of a mutate batch. Overrides are inlined for
// move_pods_to_node and nested for move_owner_to_pool.
type Operation struct {
	Op string `json:"op"`

	PodIDs   []string `json:"pod_ids,omitempty"`
	NodeName string   `json:"node_name,omitempty"`

	Namespace  string `json:"namespace,omitempty"`
	OwnerKind  string `json:"owner_kind,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`
	TargetPool string `json:"target_pool,omitempty"`

	IncludeSystem     bool `json:"include_system,omitempty"`
	IncludeDaemonSets bool `json:"include_daemonsets,omitempty"`

	// move_pods_to_node
	ReqCPU       *int64            `json:"req_cpu_m,omitempty"`
	ReqMem       *int64            `json:"req_mem_b,omitempty"`
	Tolerations  []Toleration      `json:"tolerations,omitempty"`
	NodeSelector map[string]string `json:"node_selector,omitempty"`

	// move_owner_to_pool
	Overrides *Overrides `json:"overrides,omitempty"`
}

type MutateRequest struct {
	Operations []Operation `json:"operations"`
}

type Snapshot struct {
	ID         string `json:"id"`
	NodesCount int    `json:"nodes_count"`
	PodsCount  int    `json:"pods_count"`
	IsActive   bool   `json:"is_active"`
}

type CaptureResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type RefreshPricesResponse struct {
	OK            bool               `json:"ok"`
	Region        string             `json:"region"`
	InstanceTypes []string           `json:"instance_types"`
	HourlyPrices  map[string]float64 `json:"hourly_prices"`
}
