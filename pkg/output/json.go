package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
	"github.com/opscart/k8s-capacity-console/pkg/viewstate"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

// JSONHandler writes machine-readable output
type JSONHandler struct {
	enc *json.Encoder
}

func NewJSONHandler(w io.Writer) *JSONHandler {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONHandler{enc: enc}
}

func (h *JSONHandler) DisplayNodes(_ context.Context, view viewstate.View) error {
	return h.enc.Encode(struct {
		Nodes        []models.NodeView `json:"nodes"`
		SelectedNode string            `json:"selectedNode"`
		Highlighted  []string          `json:"highlighted"`
		Sort         any               `json:"sort"`
	}{view.Nodes, view.SelectedNode, view.Highlighted, view.NodeSort})
}

func (h *JSONHandler) DisplayWorkloads(_ context.Context, view viewstate.View) error {
	return h.enc.Encode(struct {
		Node       string                `json:"node"`
		Workloads  []models.WorkloadView `json:"workloads"`
		Violations map[string][]string   `json:"violations,omitempty"`
		Sort       any                   `json:"sort"`
	}{view.SelectedNode, view.Workloads, view.Violations, view.WorkloadSort})
}

func (h *JSONHandler) DisplayPools(_ context.Context, report reconcile.Report) error {
	return h.enc.Encode(report)
}

func (h *JSONHandler) DisplayPending(_ context.Context, pending workflow.PendingMove) error {
	return h.enc.Encode(pending)
}

func (h *JSONHandler) DisplayLogs(_ context.Context, logs []models.LogEntry) error {
	if logs == nil {
		logs = []models.LogEntry{}
	}
	return h.enc.Encode(logs)
}

func (h *JSONHandler) DisplaySnapshots(_ context.Context, snapshots []models.SnapshotInfo) error {
	if snapshots == nil {
		snapshots = []models.SnapshotInfo{}
	}
	return h.enc.Encode(snapshots)
}

func (h *JSONHandler) DisplayPrices(_ context.Context, table models.PriceTable) error {
	if table.Rows == nil {
		table.Rows = []models.InstancePrice{}
	}
	return h.enc.Encode(table)
}

func (h *JSONHandler) DisplayHistory(_ context.Context, records []*models.MoveRecord) error {
	if records == nil {
		records = []*models.MoveRecord{}
	}
	return h.enc.Encode(records)
}

func (h *JSONHandler) Format() string { return FormatJSON }
