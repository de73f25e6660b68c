package workflow

import (
	"errors"
	"testing"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

func TestPrepareBulk(t *testing.T) {
	tests := []struct {
		name     string
		op       models.Operation
		wantErr  error
		wantPool string
	}{
		{"namespace to pool", models.NewMoveNamespaceOp("ns", "karpenter pool-y", models.Scope{}), nil, "pool-y"},
		{"namespace without pool", models.NewMoveNamespaceOp("ns", "  ", models.Scope{}), ErrMissingPool, ""},
		{"node to pool", models.NewMoveNodeOp("node-a", "pool-y", models.Scope{}), nil, "pool-y"},
		{"unknown node", models.NewMoveNodeOp("gone", "pool-y", models.Scope{}), ErrUnknownNode, ""},
		{"pods to pool", models.NewMovePodsToPoolOp([]string{"ns/app-1"}, "pool-y"), nil, "pool-y"},
		{"unknown pod", models.NewMovePodsToPoolOp([]string{"ns/app-1", "ns/ghost"}, "pool-y"), ErrUnknownWorkload, ""},
		{"delete pods", models.NewDeletePodsOp([]string{"ns/app-1"}), nil, ""},
		{"delete namespace", models.NewDeleteNamespaceOp("ns", models.Scope{IncludeSystem: true}), nil, ""},
		{"delete owner", models.NewDeleteOwnerOp("ns", "Deployment", "app", models.Scope{}), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := PrepareBulk(testState(), tt.op)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if err == nil && op.TargetPool != tt.wantPool {
				t.Errorf("Expected pool %q, got %q", tt.wantPool, op.TargetPool)
			}
		})
	}
}

func TestPrepareBulkInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		op    models.Operation
		field string
	}{
		{"empty namespace", models.NewDeleteNamespaceOp(" ", models.Scope{}), "namespace"},
		{"no pods", models.NewDeletePodsOp(nil), "pods"},
		{"owner without name", models.NewDeleteOwnerOp("ns", "Deployment", "", models.Scope{}), "owner"},
		{"single move kind", models.NewMoveWorkloadOp("ns/app-1", "node-b", models.Overrides{}), "operation"},
		{"reset", models.NewResetOp(), "operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareBulk(testState(), tt.op)
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("Expected *InputError, got %v", err)
			}
			if inputErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, inputErr.Field)
			}
		})
	}
}

func TestOwnerOf(t *testing.T) {
	state := testState()
	state.PodsByNode["node-b"] = []models.WorkloadView{
		{ID: "ns/web-1", Namespace: "ns", Name: "web-1", OwnerKind: "ReplicaSet", OwnerName: "web"},
	}

	ns, kind, name, err := OwnerOf(state, "ns/web-1")
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if ns != "ns" || kind != "ReplicaSet" || name != "web" {
		t.Errorf("Unexpected owner %s/%s/%s", ns, kind, name)
	}

	var inputErr *InputError
	if _, _, _, err := OwnerOf(state, "ns/app-1"); !errors.As(err, &inputErr) {
		t.Errorf("Expected *InputError for a bare workload, got %v", err)
	}
	if _, _, _, err := OwnerOf(state, "ns/ghost"); !errors.Is(err, ErrUnknownWorkload) {
		t.Errorf("Expected ErrUnknownWorkload, got %v", err)
	}
}
