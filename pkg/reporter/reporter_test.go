package reporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reconcile"
)

func testResult() reconcile.Report {
	return reconcile.Reconcile(models.Summary{
		Pools: map[string]models.PoolStat{
			"general": {Cost: 120, Count: 4},
			"legacy":  {Cost: 30, Count: 1},
			"static":  {Cost: 10, Count: 1},
		},
		ProjectedPools: map[string]models.PoolStat{
			"general":   {Cost: 90, Count: 3},
			"keda-spot": {Cost: 20, Count: 2},
			"static":    {Cost: 10, Count: 1},
		},
		TotalCostDaily:     160,
		ProjectedTotalCost: 120,
	}, nil)
}

func TestGenerateStats(t *testing.T) {
	report := New(FormatCSV).Generate(testResult(), "snap-1")

	if report.PoolCount != 4 {
		t.Errorf("Expected 4 pools, got %d", report.PoolCount)
	}
	if report.NewPools != 1 || report.RemovedPools != 1 || report.ChangedPools != 1 {
		t.Errorf("Expected 1 new, 1 removed, 1 changed, got %d/%d/%d",
			report.NewPools, report.RemovedPools, report.ChangedPools)
	}
	if report.SavingsDaily != 40 {
		t.Errorf("Expected daily savings 40, got %.2f", report.SavingsDaily)
	}
	if report.SavingsMonthly != 40*DaysPerMonth {
		t.Errorf("Expected monthly savings %d, got %.2f", 40*DaysPerMonth, report.SavingsMonthly)
	}

	statuses := map[string]string{}
	for _, p := range report.Pools {
		statuses[p.Pool] = p.Status
	}
	want := map[string]string{
		"general":   StatusChanged,
		"legacy":    StatusRemoved,
		"keda-spot": StatusNew,
		"static":    StatusUnchanged,
	}
	for pool, s := range want {
		if statuses[pool] != s {
			t.Errorf("Expected %s to be %s, got %s", pool, s, statuses[pool])
		}
	}
}

func TestGenerateCSV(t *testing.T) {
	report := New(FormatCSV).Generate(testResult(), "snap-1")

	var buf bytes.Buffer
	if err := GenerateCSV(report, &buf); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if records[0][0] != "Pool" {
		t.Errorf("Expected header row, got %v", records[0])
	}
	// pools are ordered by historical cost, highest first
	if records[1][0] != "general" || records[1][7] != "-30.00" || records[1][8] != "-900.00" {
		t.Errorf("Unexpected first pool row: %v", records[1])
	}
	found := false
	for _, rec := range records {
		if len(rec) == 2 && rec[0] == "Monthly Savings" {
			found = true
			if rec[1] != "$1200.00" {
				t.Errorf("Expected $1200.00 monthly savings, got %s", rec[1])
			}
		}
	}
	if !found {
		t.Error("Expected a Monthly Savings summary row")
	}
}

func TestGenerateHTML(t *testing.T) {
	report := New(FormatHTML).Generate(testResult(), "snap-<1>")

	var buf bytes.Buffer
	if err := New(FormatHTML).Write(report, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"snap-&lt;1&gt;",
		"status-new",
		"keda-spot",
		"-$30.00",
		"$1200.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportFormat
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"html", FormatHTML, false},
		{"markdown", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
