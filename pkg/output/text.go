package output

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/opscart/k8s-capacity-console/pkg/format"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/viewstate"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("58")).Foreground(lipgloss.Color("15"))
	virtualStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	normalStyle    = lipgloss.NewStyle()
	increaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	decreaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sepStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const (
	upArrow   = "▲"
	downArrow = "▼"
	rule      = "─"
)

// TextHandler renders styled terminal tables
type TextHandler struct {
	w io.Writer
}

func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: w}
}

func (h *TextHandler) Format() string { return FormatText }

func arrow(active bool, dir sorting.Direction) string {
	if !active {
		return ""
	}
	if dir == sorting.Asc {
		return " " + upArrow
	}
	return " " + downArrow
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func trendStyle(t reconcile.Trend) lipgloss.Style {
	switch t {
	case reconcile.Increase:
		return increaseStyle
	case reconcile.Decrease:
		return decreaseStyle
	default:
		return dimStyle
	}
}

func (h *TextHandler) DisplayNodes(_ context.Context, view viewstate.View) error {
	const (
		colNode = 28
		colPool = 22
		colInst = 12
		colCPU  = 20
		colRAM  = 24
		colCost = 10
	)

	s := view.NodeSort
	metric := func(label, key string) string {
		if s.Key == key {
			return fmt.Sprintf("%s(%s)%s", label, s.Mode, arrow(true, s.Dir))
		}
		return label
	}

	var sb strings.Builder
	header := fmt.Sprintf("  %-*s %-*s %-*s %*s %*s %*s",
		colNode, "Node"+arrow(s.Key == sorting.NodeKeyName || s.Key == sorting.NodeKeyDefault, s.Dir),
		colPool, "Pool"+arrow(s.Key == sorting.NodeKeyPool, s.Dir),
		colInst, "Instance",
		colCPU, metric("CPU", sorting.NodeKeyCPU),
		colRAM, metric("RAM", sorting.NodeKeyRAM),
		colCost, "$/day"+arrow(s.Key == sorting.NodeKeyCost, s.Dir))
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString("  " + sepStyle.Render(strings.Repeat(rule, colNode+colPool+colInst+colCPU+colRAM+colCost+5)) + "\n")

	for _, n := range view.Nodes {
		pool := n.Pool
		if pool == "" {
			pool = "-"
		}
		cost := format.USD(n.CostDaily)
		if n.PriceMissing {
			cost += "*"
		}

		cpu := fmt.Sprintf("%s/%s %s", format.CPU(n.RequestedCPU), format.CPU(n.AllocCPU),
			format.Percent(format.Ratio(n.RequestedCPU, n.AllocCPU)))
		ram := fmt.Sprintf("%s %s", format.Bytes(n.RequestedMemory),
			format.Percent(format.Ratio(n.RequestedMemory, n.AllocMemory)))
		if s.Mode == sorting.Used && (s.Key == sorting.NodeKeyCPU || s.Key == sorting.NodeKeyRAM) {
			cpu = fmt.Sprintf("%s/%s %s", format.CPU(n.UsedCPU), format.CPU(n.AllocCPU),
				format.Percent(format.Ratio(n.UsedCPU, n.AllocCPU)))
			ram = fmt.Sprintf("%s %s", format.Bytes(n.UsedMemory),
				format.Percent(format.Ratio(n.UsedMemory, n.AllocMemory)))
		}

		row := fmt.Sprintf("%-*s %-*s %-*s %*s %*s %*s",
			colNode, truncate(n.Name, colNode),
			colPool, truncate(pool, colPool),
			colInst, truncate(n.Instance, colInst),
			colCPU, cpu,
			colRAM, ram,
			colCost, cost)

		style := normalStyle
		switch {
		case view.IsHighlighted(n.Name):
			style = highlightStyle
		case n.IsVirtual:
			style = virtualStyle
		}

		prefix := "  "
		if n.Name == view.SelectedNode {
			prefix = "→ "
		}
		sb.WriteString(prefix + style.Render(row) + "\n")
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayWorkloads(_ context.Context, view viewstate.View) error {
	const (
		colNS     = 20
		colName   = 36
		colType   = 8
		colActive = 8
		colCPU    = 8
		colMem    = 10
		colUsage  = 18
	)

	s := view.WorkloadSort
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workloads on %s\n", view.SelectedNode)

	header := fmt.Sprintf("  %-*s %-*s %-*s %*s %*s %*s %*s",
		colNS, "Namespace"+arrow(s.Key == sorting.WorkloadKeyNamespace, s.Dir),
		colName, "Name"+arrow(s.Key == sorting.WorkloadKeyName, s.Dir),
		colType, "Type"+arrow(s.Key == sorting.WorkloadKeyType, s.Dir),
		colActive, "Active"+arrow(s.Key == sorting.WorkloadKeyActiveRatio, s.Dir),
		colCPU, "CPU"+arrow(s.Key == sorting.WorkloadKeyCPU, s.Dir),
		colMem, "Mem"+arrow(s.Key == sorting.WorkloadKeyMemory, s.Dir),
		colUsage, "Usage")
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString("  " + sepStyle.Render(strings.Repeat(rule, colNS+colName+colType+colActive+colCPU+colMem+colUsage+6)) + "\n")

	for _, p := range view.Workloads {
		usage := "-"
		if p.UsedCPU != nil || p.UsedMemory != nil {
			cpu, mem := "-", "-"
			if p.UsedCPU != nil {
				cpu = format.CPU(*p.UsedCPU)
			}
			if p.UsedMemory != nil {
				mem = format.Bytes(*p.UsedMemory)
			}
			usage = cpu + " / " + mem
		}

		row := fmt.Sprintf("%-*s %-*s %-*s %*s %*s %*s %*s",
			colNS, truncate(p.Namespace, colNS),
			colName, truncate(p.Name, colName),
			colType, p.Category(),
			colActive, format.Percent(p.ActiveRatio),
			colCPU, format.CPU(p.RequestedCPU),
			colMem, format.Bytes(p.RequestedMemory),
			colUsage, usage)

		style := normalStyle
		if p.IsDaemon {
			style = dimStyle
		}
		sb.WriteString("  " + style.Render(row) + "\n")

		if reasons := view.Violations[p.ID]; len(reasons) > 0 {
			sb.WriteString("    " + increaseStyle.Render("! "+strings.Join(reasons, "; ")) + "\n")
		}
	}
	if len(view.Workloads) == 0 {
		sb.WriteString("  " + dimStyle.Render("(no workloads)") + "\n")
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayPools(_ context.Context, report reconcile.Report) error {
	const (
		colPool  = 28
		colNodes = 16
		colCost  = 24
		colFlag  = 8
	)

	var sb strings.Builder
	header := fmt.Sprintf("  %-*s %*s %*s %*s",
		colPool, "Pool", colNodes, "Nodes", colCost, "$/day", colFlag, "")
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString("  " + sepStyle.Render(strings.Repeat(rule, colPool+colNodes+colCost+colFlag+3)) + "\n")

	line := func(name string, baseline, projected models.PoolStat, countDelta int, costDelta float64, countTrend, costTrend reconcile.Trend, flag string) {
		nodes := fmt.Sprintf("%d→%d", baseline.Count, projected.Count)
		cost := fmt.Sprintf("%s→%s", format.USD(baseline.Cost), format.USD(projected.Cost))
		fmt.Fprintf(&sb, "  %-*s %*s %*s %-*s\n",
			colPool, truncate(name, colPool),
			colNodes, nodes,
			colCost, cost,
			colFlag, flag)
		fmt.Fprintf(&sb, "  %-*s %*s %*s\n",
			colPool, "",
			colNodes, trendStyle(countTrend).Render(format.SignedInt(countDelta)),
			colCost, trendStyle(costTrend).Render(format.SignedUSD(costDelta)))
	}

	for _, p := range report.Pools {
		flag := ""
		switch {
		case p.IsNew:
			flag = "NEW"
		case p.IsRemoved:
			flag = "REMOVED"
		}
		line(p.Pool, p.Baseline, p.Projected, p.CountDelta, p.CostDelta, p.CountTrend, p.CostTrend, flag)
	}

	t := report.Total
	sb.WriteString("  " + sepStyle.Render(strings.Repeat(rule, colPool+colNodes+colCost+colFlag+3)) + "\n")
	line("TOTAL", t.Baseline, t.Projected, t.CountDelta, t.CostDelta, t.CountTrend, t.CostTrend, "")

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayPending(_ context.Context, p workflow.PendingMove) error {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Move review") + "\n")
	fmt.Fprintf(&sb, "  Workload:      %s\n", p.PodID)
	if p.Target.Node != "" {
		fmt.Fprintf(&sb, "  Dropped on:    node %s\n", p.Target.Node)
	} else {
		fmt.Fprintf(&sb, "  Dropped on:    pool %s\n", p.Target.Pool)
	}
	fmt.Fprintf(&sb, "  Target node:   %s\n", p.Plan.TargetNode)
	if p.Pool != "" {
		fmt.Fprintf(&sb, "  Target pool:   %s\n", p.Pool)
	}
	fmt.Fprintf(&sb, "  CPU (m):       %s\n", p.Edits.CPU)
	fmt.Fprintf(&sb, "  Memory (B):    %s\n", p.Edits.Memory)
	fmt.Fprintf(&sb, "  Tolerations:   %s\n", p.Edits.Tolerations)
	fmt.Fprintf(&sb, "  Node selector: %s\n", p.Edits.NodeSelector)
	if p.CanApplyToOwner() {
		box := "[ ]"
		if p.Edits.ApplyToOwner {
			box = "[x]"
		}
		fmt.Fprintf(&sb, "  %s apply to %s/%s in pool %s\n", box, p.Plan.OwnerKind, p.Plan.OwnerName, p.Pool)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayLogs(_ context.Context, logs []models.LogEntry) error {
	var sb strings.Builder
	if len(logs) == 0 {
		sb.WriteString(dimStyle.Render("(no changes)") + "\n")
	}
	for _, l := range logs {
		fmt.Fprintf(&sb, "%s  %s", dimStyle.Render(format.Timestamp(l.Timestamp)), l.Message)
		if len(l.Details) > 0 {
			keys := make([]string, 0, len(l.Details))
			for k := range l.Details {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, fmt.Sprintf("%s=%v", k, l.Details[k]))
			}
			sb.WriteString("  " + dimStyle.Render(strings.Join(parts, " ")))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplaySnapshots(_ context.Context, snapshots []models.SnapshotInfo) error {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("  %-32s %8s %8s", "Snapshot", "Nodes", "Pods")) + "\n")
	for _, s := range snapshots {
		prefix := "  "
		if s.Active {
			prefix = "* "
		}
		fmt.Fprintf(&sb, "%s%-32s %8s %8s\n", prefix, truncate(s.ID, 32), format.Count(s.NodeCount), format.Count(s.PodCount))
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayPrices(_ context.Context, table models.PriceTable) error {
	var sb strings.Builder
	if table.Region != "" {
		fmt.Fprintf(&sb, "Prices for %s\n", table.Region)
	}
	sb.WriteString(headerStyle.Render(fmt.Sprintf("  %-24s %10s %10s %6s", "Instance", "$/hour", "$/day", "Nodes")) + "\n")
	for _, p := range table.Rows {
		if !p.Known {
			row := fmt.Sprintf("%-24s %10s %10s %6d", truncate(p.Instance, 24), "-", "-", p.Nodes)
			sb.WriteString("  " + increaseStyle.Render(row) + "\n")
			continue
		}
		fmt.Fprintf(&sb, "  %-24s %10s %10s %6d\n",
			truncate(p.Instance, 24), fmt.Sprintf("$%.4f", p.HourlyUSD), format.USD(p.DailyUSD), p.Nodes)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *TextHandler) DisplayHistory(_ context.Context, records []*models.MoveRecord) error {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("  %-19s %-22s %-36s %-24s %-8s", "Time", "Kind", "Subject", "Target", "Status")) + "\n")
	for _, r := range records {
		subject := r.PodID
		switch r.Kind {
		case models.OpMoveOwnerToPool, models.OpDeleteOwner:
			subject = fmt.Sprintf("%s/%s/%s", r.Namespace, r.OwnerKind, r.OwnerName)
		case models.OpMoveNamespaceToPool, models.OpDeleteNamespace:
			subject = "namespace " + r.Namespace
		case models.OpMoveNodeToPool:
			subject = "node " + r.SourceNode
		}
		target := r.TargetNode
		if target == "" {
			target = r.TargetPool
		}
		if target == "" {
			target = "-"
		}
		status := decreaseStyle.Render(string(r.Status))
		if r.Status == models.MoveFailed {
			status = increaseStyle.Render(string(r.Status))
		}
		fmt.Fprintf(&sb, "  %-19s %-22s %-36s %-24s %s\n",
			format.Timestamp(r.CreatedAt), r.Kind, truncate(subject, 36), truncate(target, 24), status)
		if r.ErrorMessage != "" {
			sb.WriteString("    " + dimStyle.Render(r.ErrorMessage) + "\n")
		}
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}
