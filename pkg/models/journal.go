package models

import "time"

// MoveStatus is the outcome of a committed move
type MoveStatus string

const (
	MoveSucceeded MoveStatus = "SUCCESS"
	MoveFailed    MoveStatus = "FAILED"
)

// MoveRecord journals one mutation attempt. PodID lists instances comma separated.
type MoveRecord struct {
	ID        string        `json:"id"`
	Kind      OperationKind `json:"kind"`
	PodID     string        `json:"podId"`
	Namespace string        `json:"namespace"`
	OwnerKind string        `json:"ownerKind,omitempty"`
	OwnerName string        `json:"ownerName,omitempty"`

	SourceNode string `json:"sourceNode,omitempty"`
	TargetNode string `json:"targetNode,omitempty"`
	TargetPool string `json:"targetPool,omitempty"`

	// Overrides as submitted
	RequestedCPU    int64 `json:"requestedCpu"`
	RequestedMemory int64 `json:"requestedMemory"`

	Status       MoveStatus `json:"status"`
	ErrorMessage string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
