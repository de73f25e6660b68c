package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

func addScopeFlags(flags *pflag.FlagSet, scope *models.Scope) {
	flags.BoolVar(&scope.IncludeSystem, "include-system", false, "Include workloads in system namespaces")
	flags.BoolVar(&scope.IncludeDaemonSets, "include-daemonsets", false, "Include daemonset workloads")
}

// applyOperation asks for confirmation, then sends op and shows the pool impact
func applyOperation(cmd *cobra.Command, op models.Operation, summary string, autoYes bool) {
	ctx := cmd.Context()
	if !autoYes && !confirmPrompt(summary+"?") {
		logInfo("Cancelled")
		return
	}
	exitOnError(con.Apply(ctx, op))
	logInfo("Applied %s", op.Kind)
	exitOnError(out.DisplayPools(ctx, con.View().Pools))
}

func newMoveNamespaceCmd() *cobra.Command {
	var (
		pool    string
		scope   models.Scope
		autoYes bool
	)
	cmd := &cobra.Command{
		Use:   "move-namespace <namespace>",
		Short: "Move every workload of a namespace into a pool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			op := models.NewMoveNamespaceOp(args[0], pool, scope)
			applyOperation(cmd, op, fmt.Sprintf("Move namespace %s to pool %s", args[0], pool), autoYes)
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "Target pool")
	cmd.MarkFlagRequired("pool")
	addScopeFlags(cmd.Flags(), &scope)
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Apply without asking")
	return cmd
}

func newDrainNodeCmd() *cobra.Command {
	var (
		pool    string
		scope   models.Scope
		autoYes bool
	)
	cmd := &cobra.Command{
		Use:   "drain-node <node>",
		Short: "Move the workloads of a node into a pool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			op := models.NewMoveNodeOp(args[0], pool, scope)
			applyOperation(cmd, op, fmt.Sprintf("Move workloads of %s to pool %s", args[0], pool), autoYes)
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "Target pool")
	cmd.MarkFlagRequired("pool")
	addScopeFlags(cmd.Flags(), &scope)
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Apply without asking")
	return cmd
}

func newMovePodsCmd() *cobra.Command {
	var (
		pool    string
		autoYes bool
	)
	cmd := &cobra.Command{
		Use:   "move-pods <namespace/pod>...",
		Short: "Let the backend place several workloads in a pool",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			op := models.NewMovePodsToPoolOp(args, pool)
			applyOperation(cmd, op, fmt.Sprintf("Move %d workloads to pool %s", len(args), pool), autoYes)
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "Target pool")
	cmd.MarkFlagRequired("pool")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Apply without asking")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var (
		scope   models.Scope
		autoYes bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove workloads from the simulation",
	}
	cmd.PersistentFlags().BoolVarP(&autoYes, "yes", "y", false, "Apply without asking")

	cmd.AddCommand(&cobra.Command{
		Use:   "pods <namespace/pod>...",
		Short: "Remove workload instances",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			applyOperation(cmd, models.NewDeletePodsOp(args),
				fmt.Sprintf("Delete %s", strings.Join(args, ", ")), autoYes)
		},
	})

	nsCmd := &cobra.Command{
		Use:   "namespace <namespace>",
		Short: "Remove every workload of a namespace",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			applyOperation(cmd, models.NewDeleteNamespaceOp(args[0], scope),
				fmt.Sprintf("Delete namespace %s", args[0]), autoYes)
		},
	}
	addScopeFlags(nsCmd.Flags(), &scope)

	ownerCmd := &cobra.Command{
		Use:   "owner <namespace/pod>",
		Short: "Remove every instance of the controller managing a workload",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			load(cmd.Context())
			ns, kind, name, err := con.OwnerOf(args[0])
			exitOnError(err)
			applyOperation(cmd, models.NewDeleteOwnerOp(ns, kind, name, scope),
				fmt.Sprintf("Delete %s %s/%s", kind, ns, name), autoYes)
		},
	}
	addScopeFlags(ownerCmd.Flags(), &scope)

	cmd.AddCommand(nsCmd, ownerCmd)
	return cmd
}
