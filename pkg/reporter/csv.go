package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Pool",
		"Status",
		"Baseline Nodes",
		"Projected Nodes",
		"Node Delta",
		"Baseline Cost ($/day)",
		"Projected Cost ($/day)",
		"Cost Delta ($/day)",
		"Cost Delta ($/month)",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, p := range report.Pools {
		row := []string{
			p.Pool,
			p.Status,
			fmt.Sprintf("%d", p.Baseline.Count),
			fmt.Sprintf("%d", p.Projected.Count),
			fmt.Sprintf("%d", p.CountDelta),
			fmt.Sprintf("%.2f", p.Baseline.Cost),
			fmt.Sprintf("%.2f", p.Projected.Cost),
			fmt.Sprintf("%.2f", p.CostDelta),
			fmt.Sprintf("%.2f", p.CostDelta*DaysPerMonth),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	t := report.Total
	rows := [][]string{
		{},
		{"SUMMARY"},
		{"Source", report.Source},
		{"Pools", fmt.Sprintf("%d", report.PoolCount)},
		{"New Pools", fmt.Sprintf("%d", report.NewPools)},
		{"Removed Pools", fmt.Sprintf("%d", report.RemovedPools)},
		{"Nodes", fmt.Sprintf("%d", t.Baseline.Count), fmt.Sprintf("%d", t.Projected.Count)},
		{"Daily Cost", fmt.Sprintf("$%.2f", t.Baseline.Cost), fmt.Sprintf("$%.2f", t.Projected.Cost)},
		{"Daily Savings", fmt.Sprintf("$%.2f", report.SavingsDaily)},
		{"Monthly Savings", fmt.Sprintf("$%.2f", report.SavingsMonthly)},
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}

	return nil
}
