package models

// DefaultPool is the bucket used for nodes that carry no pool identifier
const DefaultPool = "default"

// NodeParts splits requested resources into workload categories
type NodeParts struct {
	// CPU in millicores
	PrimaryCPU int64 `json:"primaryCpu"`
	DaemonCPU  int64 `json:"daemonCpu"`
	OtherCPU   int64 `json:"otherCpu"`

	// Memory in bytes
	PrimaryMemory int64 `json:"primaryMemory"`
	DaemonMemory  int64 `json:"daemonMemory"`
	OtherMemory   int64 `json:"otherMemory"`
}

// NodeView represents one simulated compute node
type NodeView struct {
	Name     string `json:"name"`
	Pool     string `json:"pool,omitempty"` // empty when the node has no pool
	Instance string `json:"instance,omitempty"`

	// CPU in millicores
	AllocCPU     int64 `json:"allocCpu"`
	RequestedCPU int64 `json:"requestedCpu"`
	UsedCPU      int64 `json:"usedCpu"`

	// Memory in bytes
	AllocMemory     int64 `json:"allocMemory"`
	RequestedMemory int64 `json:"requestedMemory"`
	UsedMemory      int64 `json:"usedMemory"`

	Parts NodeParts `json:"parts"`

	CostDaily    float64 `json:"costDaily"`
	IsVirtual    bool    `json:"isVirtual"`
	PriceMissing bool    `json:"priceMissing"`
}

// HasPool reports whether the node belongs to a named pool
func (n NodeView) HasPool() bool {
	return n.Pool != ""
}

// PoolOrDefault returns the pool name, bucketing pool-less nodes under DefaultPool
func (n NodeView) PoolOrDefault() string {
	if n.Pool == "" {
		return DefaultPool
	}
	return n.Pool
}
