package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscart/k8s-capacity-console/pkg/format"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reporter"
	"github.com/opscart/k8s-capacity-console/pkg/server"
	"github.com/opscart/k8s-capacity-console/pkg/storage"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

// applyClicks replays header clicks in order, so "cpu,cpu" reaches CPU used descending
func applyClicks(keys []string, click func(string) error) {
	for _, k := range keys {
		exitOnError(click(k))
	}
}

func newNodesCmd() *cobra.Command {
	var sortKeys []string
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Show the node table",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			load(ctx)
			applyClicks(sortKeys, con.ClickNodeSort)
			exitOnError(out.DisplayNodes(ctx, con.View()))
		},
	}
	cmd.Flags().StringSliceVar(&sortKeys, "sort", nil, "Header clicks in order: node, nodepool, cost, cpu, ram, default")
	return cmd
}

func newPodsCmd() *cobra.Command {
	var sortKeys []string
	cmd := &cobra.Command{
		Use:   "pods [node]",
		Short: "Show the workloads on a node (first node when omitted)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			load(ctx)
			if len(args) == 1 {
				exitOnError(con.SelectNode(args[0]))
			}
			applyClicks(sortKeys, con.ClickWorkloadSort)
			exitOnError(out.DisplayWorkloads(ctx, con.View()))
		},
	}
	cmd.Flags().StringSliceVar(&sortKeys, "sort", nil, "Header clicks in order: namespace, name, active-ratio, type, cpu, mem, default")
	return cmd
}

func newPoolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "Compare historical and projected pool cost and node counts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			load(ctx)
			exitOnError(out.DisplayPools(ctx, con.View().Pools))
		},
	}
}

func newMoveCmd() *cobra.Command {
	var (
		node, pool            string
		cpu, memory           string
		tolerations, selector string
		applyToOwner, autoYes bool
	)
	cmd := &cobra.Command{
		Use:   "move <namespace/pod>",
		Short: "Plan and commit a workload move onto a node or pool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if (node == "") == (pool == "") {
				exitOnError(fmt.Errorf("exactly one of --node or --pool is required"))
			}
			ctx := cmd.Context()
			load(ctx)

			pending, err := con.Drop(ctx, args[0], workflow.Target{Node: node, Pool: pool})
			exitOnError(err)

			edits := pending.Edits
			flags := cmd.Flags()
			if flags.Changed("cpu") {
				edits.CPU = cpu
			}
			if flags.Changed("memory") {
				edits.Memory = memory
			}
			if flags.Changed("tolerations") {
				edits.Tolerations = tolerations
			}
			if flags.Changed("node-selector") {
				edits.NodeSelector = selector
			}
			edits.ApplyToOwner = applyToOwner
			if applyToOwner && !pending.CanApplyToOwner() {
				logWarn("%s has no controller in a known pool, moving the single workload", pending.PodID)
			}

			pending.Edits = edits
			exitOnError(out.DisplayPending(ctx, pending))

			if !autoYes && !confirmPrompt("Apply this move?") {
				exitOnError(con.Cancel())
				logInfo("Move cancelled")
				return
			}

			exitOnError(con.Confirm(ctx, edits))
			view := con.View()
			logInfo("Moved %s to %s", pending.PodID, pending.Plan.TargetNode)
			exitOnError(out.DisplayNodes(ctx, view))
			exitOnError(out.DisplayPools(ctx, view.Pools))
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "Target node")
	cmd.Flags().StringVar(&pool, "pool", "", "Target pool")
	cmd.Flags().StringVar(&cpu, "cpu", "", "Override CPU request in millicores")
	cmd.Flags().StringVar(&memory, "memory", "", "Override memory request in bytes")
	cmd.Flags().StringVar(&tolerations, "tolerations", "", "Override tolerations (JSON or YAML list)")
	cmd.Flags().StringVar(&selector, "node-selector", "", "Override node selector (JSON or YAML map)")
	cmd.Flags().BoolVar(&applyToOwner, "apply-to-owner", false, "Move the whole controller into the target pool")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Commit without asking")
	return cmd
}

func confirmPrompt(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all simulated changes on the active snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			exitOnError(con.Reset(ctx))
			logInfo("Simulation reset to baseline")
			exitOnError(out.DisplayPools(ctx, con.View().Pools))
		},
	}
}

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List cluster snapshots",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			list, err := con.Snapshots(ctx)
			exitOnError(err)
			exitOnError(out.DisplaySnapshots(ctx, list))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "activate <id>",
		Short: "Make a snapshot the active simulation base",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			exitOnError(con.ActivateSnapshot(ctx, args[0]))
			logInfo("Activated snapshot %s", args[0])
			exitOnError(out.DisplayNodes(ctx, con.View()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "capture",
		Short: "Capture the live cluster into a new snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			logInfo("Capturing live cluster state, this can take several minutes")
			id, err := con.CaptureSnapshot(ctx)
			exitOnError(err)
			logInfo("Captured snapshot %s", id)
		},
	})
	return cmd
}

func newRefreshPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-prices",
		Short: "Re-fetch instance prices for the active snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			result, err := con.RefreshPrices(ctx)
			exitOnError(err)
			logInfo("Refreshed %s prices for %s in %s",
				format.Count(len(result.HourlyPrices)), strings.Join(result.InstanceTypes, ", "), result.Region)
			exitOnError(out.DisplayPrices(ctx, con.Prices()))
		},
	}
}

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show the simulation change log",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			load(ctx)
			exitOnError(out.DisplayLogs(ctx, con.View().Logs))
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		namespace string
		status    string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled moves (requires STORAGE_ENABLED)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			records, err := con.History(ctx, storage.MoveFilter{
				Namespace: namespace,
				Status:    models.MoveStatus(strings.ToUpper(status)),
				Limit:     limit,
			})
			exitOnError(err)
			if len(records) == 0 {
				logInfo("No moves recorded")
				return
			}
			exitOnError(out.DisplayHistory(ctx, records))
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Only moves in this namespace")
	cmd.Flags().StringVar(&status, "status", "", "Only moves with this status: success, failed")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of moves to show")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		reportFormat string
		reportOutput string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a pool cost report (csv or html)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			f, err := reporter.ParseFormat(reportFormat)
			exitOnError(err)
			load(ctx)

			source := "simulation"
			if list, err := con.Snapshots(ctx); err == nil {
				for _, s := range list {
					if s.Active {
						source = s.ID
					}
				}
			}

			rep := reporter.New(f)
			report := rep.Generate(con.View().Pools, source)

			if reportOutput == "" {
				reportOutput = filepath.Join("reports",
					fmt.Sprintf("pool-report-%s-%s.%s", source, time.Now().Format("20060102-150405"), f))
			}
			if dir := filepath.Dir(reportOutput); dir != "." {
				exitOnError(os.MkdirAll(dir, 0o755))
			}

			file, err := os.Create(reportOutput)
			exitOnError(err)
			defer file.Close()

			exitOnError(rep.Write(report, file))
			logInfo("Report written to %s", reportOutput)
		},
	}
	cmd.Flags().StringVar(&reportFormat, "format", "html", "Report format: html, csv")
	cmd.Flags().StringVar(&reportOutput, "report-output", "", "Output file (default reports/pool-report-<snapshot>-<time>.<format>)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console over HTTP",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx, stop := signalContext()
			defer stop()

			if listen == "" {
				listen = cfg.ListenAddr
			}
			if err := con.Refresh(ctx); err != nil {
				logWarn("Initial refresh failed: %v", err)
			}

			logInfo("Serving console on %s", listen)
			srv := server.New(con, registry, logger)
			exitOnError(srv.ListenAndServe(ctx, listen))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default $LISTEN_ADDR or :8080)")
	return cmd
}
