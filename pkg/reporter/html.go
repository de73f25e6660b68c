package reporter

import (
	"fmt"
	"html/template"
	"io"

	"github.com/opscart/k8s-capacity-console/pkg/format"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pool Capacity Report - {{.Source}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #326ce5 0%, #1a4d8f 100%);
            color: white;
            padding: 50px 40px;
        }
        .header h1 {
            font-size: 2.8em;
            margin-bottom: 15px;
        }
        .header .meta {
            opacity: 0.95;
            font-size: 1.1em;
        }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(280px, 1fr));
            gap: 25px;
            padding: 40px;
            background: linear-gradient(to bottom, #f8f9fa 0%, #fff 100%);
        }
        .summary-card {
            background: white;
            padding: 30px;
            border-radius: 12px;
            border: 2px solid #e8eaed;
            box-shadow: 0 4px 12px rgba(0, 0, 0, 0.05);
        }
        .summary-card h3 {
            color: #5f6368;
            font-size: 0.85em;
            text-transform: uppercase;
            letter-spacing: 1.5px;
            margin-bottom: 15px;
            font-weight: 600;
        }
        .summary-card .value {
            font-size: 2.4em;
            font-weight: 700;
            color: #202124;
            line-height: 1;
        }
        .summary-card .sub {
            color: #5f6368;
            margin-top: 10px;
        }
        .summary-card.cost { border-left: 6px solid #326ce5; }
        .summary-card.nodes { border-left: 6px solid #fbbc04; }
        .summary-card.savings { border-left: 6px solid #34a853; }
        .section {
            padding: 50px 40px;
        }
        .section h2 {
            font-size: 2em;
            margin-bottom: 30px;
            color: #202124;
        }
        .pools-table {
            width: 100%;
            border-collapse: separate;
            border-spacing: 0;
            background: white;
            border-radius: 8px;
            overflow: hidden;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.05);
        }
        .pools-table th {
            background: #326ce5;
            color: white;
            padding: 18px 15px;
            text-align: left;
            font-weight: 600;
            font-size: 0.95em;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        .pools-table td {
            padding: 18px 15px;
            border-bottom: 1px solid #f0f2f4;
        }
        .pools-table tfoot td {
            font-weight: 700;
            border-top: 2px solid #326ce5;
        }
        .trend-increase { color: #d93025; }
        .trend-decrease { color: #1e8e3e; }
        .trend-neutral { color: #5f6368; }
        .status-badge {
            padding: 6px 12px;
            border-radius: 6px;
            font-size: 0.75em;
            font-weight: 700;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            display: inline-block;
        }
        .status-new { background: #e8f0fe; color: #1a73e8; }
        .status-removed { background: #fce8e6; color: #d93025; }
        .status-changed { background: #fef7e0; color: #f9ab00; }
        .status-unchanged { background: #f1f3f4; color: #5f6368; }
        .footer {
            background: #202124;
            color: #9aa0a6;
            padding: 40px;
            text-align: center;
        }
        .footer strong {
            color: #fff;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Pool Capacity Report</h1>
            <div class="meta">
                <p><strong>Source:</strong> {{.Source}}</p>
                <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
            </div>
        </div>

        <div class="summary">
            <div class="summary-card cost">
                <h3>Daily Cost</h3>
                <div class="value">{{usd .Total.Projected.Cost}}</div>
                <div class="sub">baseline {{usd .Total.Baseline.Cost}}</div>
            </div>
            <div class="summary-card nodes">
                <h3>Nodes</h3>
                <div class="value">{{.Total.Projected.Count}}</div>
                <div class="sub">baseline {{.Total.Baseline.Count}}, {{.PoolCount}} pools ({{.NewPools}} new, {{.RemovedPools}} removed)</div>
            </div>
            <div class="summary-card savings">
                <h3>Monthly Savings</h3>
                <div class="value">{{usd .SavingsMonthly}}</div>
                <div class="sub">{{usd .SavingsDaily}} per day</div>
            </div>
        </div>

        <div class="section">
            <h2>Pools</h2>
            <table class="pools-table">
                <thead>
                    <tr>
                        <th>Pool</th>
                        <th>Status</th>
                        <th>Nodes</th>
                        <th>Node Delta</th>
                        <th>Cost/Day</th>
                        <th>Cost Delta/Day</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Pools}}
                    <tr>
                        <td><strong>{{.Pool}}</strong></td>
                        <td><span class="status-badge status-{{.Status}}">{{.Status}}</span></td>
                        <td>{{.Baseline.Count}} &rarr; {{.Projected.Count}}</td>
                        <td class="trend-{{.CountTrend}}">{{signedInt .CountDelta}}</td>
                        <td>{{usd .Baseline.Cost}} &rarr; {{usd .Projected.Cost}}</td>
                        <td class="trend-{{.CostTrend}}">{{signedUSD .CostDelta}}</td>
                    </tr>
                    {{end}}
                </tbody>
                <tfoot>
                    <tr>
                        <td>Total</td>
                        <td></td>
                        <td>{{.Total.Baseline.Count}} &rarr; {{.Total.Projected.Count}}</td>
                        <td class="trend-{{.Total.CountTrend}}">{{signedInt .Total.CountDelta}}</td>
                        <td>{{usd .Total.Baseline.Cost}} &rarr; {{usd .Total.Projected.Cost}}</td>
                        <td class="trend-{{.Total.CostTrend}}">{{signedUSD .Total.CostDelta}}</td>
                    </tr>
                </tfoot>
            </table>
        </div>

        <div class="footer">
            <p>Generated by <strong>capacity-console</strong></p>
        </div>
    </div>
</body>
</html>
`

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"usd":       format.USD,
		"signedUSD": format.SignedUSD,
		"signedInt": format.SignedInt,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(writer, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}
