package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

var errRequired = errors.New("required")

// PrepareBulk checks a namespace, node, pod-list or owner operation against the
// loaded state and normalises its target pool. Instances and nodes must exist;
// namespaces and owners are left to the backend.
func PrepareBulk(state *models.SimulationState, op models.Operation) (models.Operation, error) {
	if state == nil {
		return op, fmt.Errorf("%s: %w", op.Kind, ErrUnknownWorkload)
	}

	switch op.Kind {
	case models.OpMoveNamespaceToPool, models.OpMoveNodeToPool, models.OpMovePodsToPool:
		op.TargetPool = NormalizePool(op.TargetPool)
		if op.TargetPool == "" {
			return op, fmt.Errorf("%s: %w", op.Kind, ErrMissingPool)
		}
	case models.OpDeletePods, models.OpDeleteNamespace, models.OpDeleteOwner:
		op.TargetPool = ""
	default:
		return op, &InputError{Field: "operation", Err: fmt.Errorf("unsupported kind %q", op.Kind)}
	}

	switch op.Kind {
	case models.OpMoveNamespaceToPool, models.OpDeleteNamespace:
		op.Namespace = strings.TrimSpace(op.Namespace)
		if op.Namespace == "" {
			return op, &InputError{Field: "namespace", Err: errRequired}
		}
	case models.OpMoveNodeToPool:
		if _, ok := state.FindNode(op.NodeName); !ok {
			return op, fmt.Errorf("%s %s: %w", op.Kind, op.NodeName, ErrUnknownNode)
		}
	case models.OpMovePodsToPool, models.OpDeletePods:
		if len(op.PodIDs) == 0 {
			return op, &InputError{Field: "pods", Err: errRequired}
		}
		for _, id := range op.PodIDs {
			if _, ok := state.LocateWorkload(id); !ok {
				return op, fmt.Errorf("%s %s: %w", op.Kind, id, ErrUnknownWorkload)
			}
		}
	case models.OpDeleteOwner:
		if op.Namespace == "" || op.OwnerKind == "" || op.OwnerName == "" {
			return op, &InputError{Field: "owner", Err: errRequired}
		}
	}
	return op, nil
}

// OwnerOf resolves the controller managing a workload
func OwnerOf(state *models.SimulationState, podID string) (namespace, kind, name string, err error) {
	if state == nil {
		return "", "", "", fmt.Errorf("owner of %s: %w", podID, ErrUnknownWorkload)
	}
	w, _, ok := state.FindWorkload(podID)
	if !ok {
		return "", "", "", fmt.Errorf("owner of %s: %w", podID, ErrUnknownWorkload)
	}
	if !w.HasOwner() {
		return "", "", "", &InputError{Field: "owner", Err: fmt.Errorf("%s has no controller", podID)}
	}
	return w.Namespace, w.OwnerKind, w.OwnerName, nil
}
