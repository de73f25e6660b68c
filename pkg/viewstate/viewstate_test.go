package viewstate

import (
	"testing"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"golang.org/x/text/language"
	"k8s.io/apimachinery/pkg/util/sets"
)

func snapshot(nodes ...string) *models.SimulationState {
	s := &models.SimulationState{PodsByNode: map[string][]models.WorkloadView{}}
	for _, n := range nodes {
		s.Nodes = append(s.Nodes, models.NodeView{Name: n, Pool: "p"})
	}
	return s
}

func TestApplySelectsFirstNode(t *testing.T) {
	v := New()
	v.Apply(snapshot("z-node", "a-node"))
	if v.SelectedNode != "z-node" {
		t.Errorf("Expected first returned node selected, got %q", v.SelectedNode)
	}

	v.Select("a-node")
	v.Apply(snapshot("z-node", "a-node"))
	if v.SelectedNode != "a-node" {
		t.Errorf("Expected selection to survive refresh, got %q", v.SelectedNode)
	}

	v.Apply(snapshot("b-node"))
	if v.SelectedNode != "b-node" {
		t.Errorf("Expected reselection when node disappears, got %q", v.SelectedNode)
	}

	v.Apply(snapshot())
	if v.SelectedNode != "" {
		t.Errorf("Expected no selection on empty snapshot, got %q", v.SelectedNode)
	}
}

func TestLastMovedHighlight(t *testing.T) {
	s := snapshot("node-a", "node-b")
	s.PodsByNode["node-b"] = []models.WorkloadView{{ID: "ns/app-1"}}

	v := New()
	v.Highlighted.Insert("node-a")
	v.MarkMoved("ns/app-1")
	if v.Highlighted.Len() != 0 {
		t.Fatal("MarkMoved must clear previous highlights")
	}

	v.Apply(s)
	if node, ok := v.ResolveLastMoved(); !ok || node != "node-b" {
		t.Fatalf("Expected ns/app-1 resolved to node-b, got %q", node)
	}
	if !v.Highlighted.Equal(sets.New("node-b")) {
		t.Errorf("Expected only node-b highlighted, got %v", v.Highlighted.UnsortedList())
	}
	if v.LastMoved != "" {
		t.Error("Resolved marker must be consumed")
	}

	// highlight persists while the node exists
	v.Apply(s)
	if !v.Highlighted.Has("node-b") {
		t.Error("Expected highlight to persist")
	}
	v.Apply(snapshot("node-a"))
	if v.Highlighted.Len() != 0 {
		t.Errorf("Expected highlight of vanished node dropped, got %v", v.Highlighted.UnsortedList())
	}
}

func TestResortOrdersSelectedWorkloads(t *testing.T) {
	s := snapshot("node-a")
	s.PodsByNode["node-a"] = []models.WorkloadView{
		{ID: "ns/small", RequestedCPU: 10},
		{ID: "ns/big", RequestedCPU: 900},
	}

	v := New()
	v.Apply(s)
	v.Resort(sorting.NewEngine(language.English, "keda"))

	if len(v.Workloads) != 2 || v.Workloads[0].ID != "ns/big" {
		t.Errorf("Expected ns/big first, got %+v", v.Workloads)
	}

	view := v.Snapshot("", nil)
	if len(view.Nodes) != 1 || view.SelectedNode != "node-a" {
		t.Errorf("Unexpected view: %+v", view)
	}
}
