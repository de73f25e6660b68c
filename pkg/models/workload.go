package models

import "strings"

// Workload categories used for display and sorting
const (
	CategoryPrimary = "primary"
	CategoryDaemon  = "daemon"
	CategorySystem  = "system"
	CategoryOther   = "other"
)

// WorkloadView represents one workload instance resident on a node
type WorkloadView struct {
	ID        string `json:"id"` // namespace/name
	Namespace string `json:"namespace"`
	Name      string `json:"name"`

	OwnerKind string `json:"ownerKind,omitempty"`
	OwnerName string `json:"ownerName,omitempty"`

	// CPU in millicores, memory in bytes
	RequestedCPU    int64  `json:"requestedCpu"`
	RequestedMemory int64  `json:"requestedMemory"`
	UsedCPU         *int64 `json:"usedCpu,omitempty"`
	UsedMemory      *int64 `json:"usedMemory,omitempty"`

	// Fraction of a day the workload is expected to run, in [0,1]
	ActiveRatio float64 `json:"activeRatio"`

	IsPrimary bool `json:"isPrimary"`
	IsSystem  bool `json:"isSystem"`
	IsDaemon  bool `json:"isDaemon"`
}

// Category classifies the workload; daemon wins over system, system over primary
func (w WorkloadView) Category() string {
	switch {
	case w.IsDaemon:
		return CategoryDaemon
	case w.IsSystem:
		return CategorySystem
	case w.IsPrimary:
		return CategoryPrimary
	default:
		return CategoryOther
	}
}

// HasOwner reports whether a controller manages this workload
func (w WorkloadView) HasOwner() bool {
	return w.OwnerKind != "" && w.OwnerName != ""
}

// WorkloadID builds the stable identifier for a workload
func WorkloadID(namespace, name string) string {
	return namespace + "/" + name
}

// SplitWorkloadID returns the namespace and name segments of a workload ID.
// IDs without a separator yield an empty namespace.
func SplitWorkloadID(id string) (namespace, name string) {
	ns, n, ok := strings.Cut(id, "/")
	if !ok {
		return "", id
	}
	return ns, n
}
