package viewstate

import (
	"slices"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ViewState is the single live state of a console session
type ViewState struct {
	State *models.SimulationState

	// Canonical node order, rewritten by every sort
	Nodes []models.NodeView
	// Workloads of the selected node, in display order
	Workloads []models.WorkloadView

	SelectedNode string
	NodeSort     sorting.NodeSort
	WorkloadSort sorting.WorkloadSort

	Highlighted sets.Set[string]
	LastMoved   string

	Pools reconcile.Report

	// Sequence number of the last applied refresh
	Seq uint64

	Status string
}

// New returns an empty view with default sort settings
func New() *ViewState {
	return &ViewState{
		NodeSort:     sorting.DefaultNodeSort(),
		WorkloadSort: sorting.DefaultWorkloadSort(),
		Highlighted:  sets.New[string](),
	}
}

// Loaded reports whether a snapshot has been applied
func (v *ViewState) Loaded() bool {
	return v.State != nil
}

// Apply installs a freshly fetched snapshot and reconciles pool stats. The previous
// selection survives only if that node still exists; otherwise the first node of
// the returned list is selected. Highlights of vanished nodes are dropped.
func (v *ViewState) Apply(state *models.SimulationState) {
	v.State = state
	v.Nodes = slices.Clone(state.Nodes)

	if _, ok := state.FindNode(v.SelectedNode); v.SelectedNode == "" || !ok {
		v.SelectedNode = ""
		if len(state.Nodes) > 0 {
			v.SelectedNode = state.Nodes[0].Name
		}
	}

	v.Pools = reconcile.Reconcile(state.Summary, state.Nodes)

	for name := range v.Highlighted {
		if _, ok := state.FindNode(name); !ok {
			v.Highlighted.Delete(name)
		}
	}
}

// ResolveLastMoved highlights the node now hosting the last moved workload and
// consumes the marker. It returns the resolved node, if any.
func (v *ViewState) ResolveLastMoved() (string, bool) {
	if v.LastMoved == "" || v.State == nil {
		return "", false
	}
	node, ok := v.State.LocateWorkload(v.LastMoved)
	v.LastMoved = ""
	if !ok {
		return "", false
	}
	v.Highlighted = sets.New(node)
	return node, true
}

// MarkMoved records the workload being committed and clears old highlights
func (v *ViewState) MarkMoved(podID string) {
	v.LastMoved = podID
	v.Highlighted = sets.New[string]()
}

// Select changes the selected node
func (v *ViewState) Select(node string) bool {
	if v.State == nil {
		return false
	}
	if _, ok := v.State.FindNode(node); !ok {
		return false
	}
	v.SelectedNode = node
	return true
}

// Resort reorders both tables with the current sort settings
func (v *ViewState) Resort(e *sorting.Engine) {
	if v.State == nil {
		v.Nodes = nil
		v.Workloads = nil
		return
	}
	v.Nodes = e.OrderNodes(v.Nodes, v.NodeSort)
	v.Workloads = e.OrderWorkloads(v.State.PodsByNode[v.SelectedNode], v.WorkloadSort)
}

// View is a read-only copy of the state handed to renderers
type View struct {
	Nodes        []models.NodeView     `json:"nodes"`
	SelectedNode string                `json:"selectedNode"`
	Workloads    []models.WorkloadView `json:"workloads"`
	NodeSort     sorting.NodeSort      `json:"nodeSort"`
	WorkloadSort sorting.WorkloadSort  `json:"workloadSort"`
	Highlighted  []string              `json:"highlighted"`
	Pools        reconcile.Report      `json:"pools"`
	Logs         []models.LogEntry     `json:"logs,omitempty"`
	Violations   map[string][]string   `json:"violations,omitempty"`

	Phase   workflow.Phase        `json:"phase"`
	Pending *workflow.PendingMove `json:"pending,omitempty"`
	Status  string                `json:"status,omitempty"`
}

// Snapshot copies the state for rendering
func (v *ViewState) Snapshot(phase workflow.Phase, pending *workflow.PendingMove) View {
	view := View{
		Nodes:        slices.Clone(v.Nodes),
		SelectedNode: v.SelectedNode,
		Workloads:    slices.Clone(v.Workloads),
		NodeSort:     v.NodeSort,
		WorkloadSort: v.WorkloadSort,
		Highlighted:  sets.List(v.Highlighted),
		Pools:        v.Pools,
		Phase:        phase,
		Pending:      pending,
		Status:       v.Status,
	}
	if v.State != nil {
		view.Logs = slices.Clone(v.State.Logs)
		view.Violations = v.State.Violations
	}
	return view
}

// IsHighlighted reports whether a node row is flagged as just affected
func (view View) IsHighlighted(node string) bool {
	return slices.Contains(view.Highlighted, node)
}
