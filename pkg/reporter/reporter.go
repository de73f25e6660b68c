package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatCSV  ReportFormat = "csv"
)

// DaysPerMonth converts daily cost into the monthly figures shown in reports
const DaysPerMonth = 30

// Report contains all data for generating reports
type Report struct {
	Source      string
	GeneratedAt time.Time
	Pools       []PoolRow
	Total       reconcile.Aggregate

	PoolCount    int
	NewPools     int
	RemovedPools int
	ChangedPools int

	SavingsDaily   float64 // positive when the projection is cheaper
	SavingsMonthly float64
}

// PoolRow is one pool line with its status label
type PoolRow struct {
	reconcile.PoolDelta
	Status string
}

// Pool status labels
const (
	StatusNew       = "new"
	StatusRemoved   = "removed"
	StatusChanged   = "changed"
	StatusUnchanged = "unchanged"
)

// Reporter generates pool cost reports
type Reporter struct {
	format ReportFormat
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
	}
}

// ParseFormat validates a format name
func ParseFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(s); f {
	case FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (use %s or %s)", s, FormatCSV, FormatHTML)
	}
}

// Generate builds a report from a reconciliation result
func (r *Reporter) Generate(result reconcile.Report, source string) *Report {
	report := &Report{
		Source:      source,
		GeneratedAt: time.Now(),
		Pools:       make([]PoolRow, 0, len(result.Pools)),
		Total:       result.Total,
	}

	for _, p := range result.Pools {
		report.Pools = append(report.Pools, PoolRow{PoolDelta: p, Status: status(p)})
	}

	r.calculateStats(report)

	return report
}

// Write renders the report in the reporter's format
func (r *Reporter) Write(report *Report, w io.Writer) error {
	switch r.format {
	case FormatCSV:
		return GenerateCSV(report, w)
	case FormatHTML:
		return GenerateHTML(report, w)
	default:
		return fmt.Errorf("unsupported report format %q", r.format)
	}
}

func status(p reconcile.PoolDelta) string {
	switch {
	case p.IsNew:
		return StatusNew
	case p.IsRemoved:
		return StatusRemoved
	case p.CostTrend != reconcile.Neutral || p.CountTrend != reconcile.Neutral:
		return StatusChanged
	default:
		return StatusUnchanged
	}
}

// calculateStats computes the summary figures
func (r *Reporter) calculateStats(report *Report) {
	report.PoolCount = len(report.Pools)
	for _, p := range report.Pools {
		switch p.Status {
		case StatusNew:
			report.NewPools++
		case StatusRemoved:
			report.RemovedPools++
		case StatusChanged:
			report.ChangedPools++
		}
	}

	report.SavingsDaily = -report.Total.CostDelta
	report.SavingsMonthly = report.SavingsDaily * DaysPerMonth
}
