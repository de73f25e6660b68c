package models

import corev1 "k8s.io/api/core/v1"

// PlanRequest asks the backend where and how to relocate one workload.
// Exactly one of TargetNode and TargetPool is set.
type PlanRequest struct {
	PodID      string `json:"podId"`
	TargetNode string `json:"targetNode,omitempty"`
	TargetPool string `json:"targetPool,omitempty"`
}

// MovePlan is a backend-computed proposal for relocating one workload
type MovePlan struct {
	TargetNode string `json:"targetNode,omitempty"` // empty when planning failed
	TargetPool string `json:"targetPool,omitempty"`

	// Current requests, used as edit defaults
	RequestedCPU    int64 `json:"requestedCpu"`
	RequestedMemory int64 `json:"requestedMemory"`

	Tolerations  []corev1.Toleration `json:"tolerations,omitempty"`
	NodeSelector map[string]string   `json:"nodeSelector,omitempty"`

	OwnerKind string `json:"ownerKind,omitempty"`
	OwnerName string `json:"ownerName,omitempty"`
}

// HasOwner reports whether the plan names an owning controller
func (p *MovePlan) HasOwner() bool {
	return p.OwnerKind != "" && p.OwnerName != ""
}
