package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
	"github.com/opscart/k8s-capacity-console/pkg/viewstate"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Handler defines the interface for output formatting
type Handler interface {
	DisplayNodes(ctx context.Context, view viewstate.View) error
	DisplayWorkloads(ctx context.Context, view viewstate.View) error
	DisplayPools(ctx context.Context, report reconcile.Report) error
	DisplayPending(ctx context.Context, pending workflow.PendingMove) error
	DisplayLogs(ctx context.Context, logs []models.LogEntry) error
	DisplaySnapshots(ctx context.Context, snapshots []models.SnapshotInfo) error
	DisplayPrices(ctx context.Context, table models.PriceTable) error
	DisplayHistory(ctx context.Context, records []*models.MoveRecord) error
	Format() string
}

// NewHandler returns the handler for format writing to w (stdout when nil)
func NewHandler(format string, w io.Writer) (Handler, error) {
	if w == nil {
		w = os.Stdout
	}
	switch format {
	case FormatText, "":
		return NewTextHandler(w), nil
	case FormatJSON:
		return NewJSONHandler(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (use %s or %s)", format, FormatText, FormatJSON)
	}
}
