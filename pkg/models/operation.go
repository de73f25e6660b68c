package models

import corev1 "k8s.io/api/core/v1"

// OperationKind identifies a mutation understood by the backend
type OperationKind string

const (
	OpMoveWorkloadToNode  OperationKind = "move_pods_to_node"
	OpMoveOwnerToPool     OperationKind = "move_owner_to_pool"
	OpMoveNamespaceToPool OperationKind = "move_namespace_to_pool"
	OpMoveNodeToPool      OperationKind = "move_node_pods_to_pool"
	OpMovePodsToPool      OperationKind = "move_pods_to_pool"
	OpDeletePods          OperationKind = "delete_pods"
	OpDeleteNamespace     OperationKind = "delete_namespace"
	OpDeleteOwner         OperationKind = "delete_owner"
	OpResetToBaseline     OperationKind = "reset_to_baseline"
)

// Scope widens namespace, node and owner operations. By default the backend
// leaves system namespaces and daemonset pods in place.
type Scope struct {
	IncludeSystem     bool `json:"includeSystem,omitempty"`
	IncludeDaemonSets bool `json:"includeDaemonSets,omitempty"`
}

// Overrides carries user edits applied with a relocation
type Overrides struct {
	RequestedCPU    int64               `json:"requestedCpu"`
	RequestedMemory int64               `json:"requestedMemory"`
	Tolerations     []corev1.Toleration `json:"tolerations,omitempty"`
	NodeSelector    map[string]string   `json:"nodeSelector,omitempty"`
}

// Operation is one mutation sent to the backend
type Operation struct {
	Kind OperationKind `json:"kind"`

	PodIDs []string `json:"podIds,omitempty"`
	// destination for move_pods_to_node, source for move_node_pods_to_pool
	NodeName string `json:"nodeName,omitempty"`

	Namespace  string `json:"namespace,omitempty"`
	OwnerKind  string `json:"ownerKind,omitempty"`
	OwnerName  string `json:"ownerName,omitempty"`
	TargetPool string `json:"targetPool,omitempty"`

	Scope
	Overrides *Overrides `json:"overrides,omitempty"`
}

// NewMoveWorkloadOp relocates a single workload instance to a node
func NewMoveWorkloadOp(podID, node string, overrides Overrides) Operation {
	return Operation{
		Kind:      OpMoveWorkloadToNode,
		PodIDs:    []string{podID},
		NodeName:  node,
		Overrides: &overrides,
	}
}

// NewMoveOwnerOp relocates every instance of a controller to a pool
func NewMoveOwnerOp(namespace, kind, name, pool string, overrides Overrides) Operation {
	return Operation{
		Kind:       OpMoveOwnerToPool,
		Namespace:  namespace,
		OwnerKind:  kind,
		OwnerName:  name,
		TargetPool: pool,
		Overrides:  &overrides,
	}
}

// NewMoveNamespaceOp relocates every workload of a namespace to a pool
func NewMoveNamespaceOp(namespace, pool string, scope Scope) Operation {
	return Operation{Kind: OpMoveNamespaceToPool, Namespace: namespace, TargetPool: pool, Scope: scope}
}

// NewMoveNodeOp drains a node's workloads into a pool
func NewMoveNodeOp(node, pool string, scope Scope) Operation {
	return Operation{Kind: OpMoveNodeToPool, NodeName: node, TargetPool: pool, Scope: scope}
}

// NewMovePodsToPoolOp relocates the listed instances to a pool
func NewMovePodsToPoolOp(podIDs []string, pool string) Operation {
	return Operation{Kind: OpMovePodsToPool, PodIDs: podIDs, TargetPool: pool}
}

// NewDeletePodsOp removes the listed instances from the simulation
func NewDeletePodsOp(podIDs []string) Operation {
	return Operation{Kind: OpDeletePods, PodIDs: podIDs}
}

// NewDeleteNamespaceOp removes every workload of a namespace
func NewDeleteNamespaceOp(namespace string, scope Scope) Operation {
	return Operation{Kind: OpDeleteNamespace, Namespace: namespace, Scope: scope}
}

// NewDeleteOwnerOp removes every instance of a controller
func NewDeleteOwnerOp(namespace, kind, name string, scope Scope) Operation {
	return Operation{Kind: OpDeleteOwner, Namespace: namespace, OwnerKind: kind, OwnerName: name, Scope: scope}
}

// NewResetOp discards all mutations applied to the active snapshot
func NewResetOp() Operation {
	return Operation{Kind: OpResetToBaseline}
}
