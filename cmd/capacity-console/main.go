package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opscart/k8s-capacity-console/pkg/backend"
	"github.com/opscart/k8s-capacity-console/pkg/config"
	"github.com/opscart/k8s-capacity-console/pkg/console"
	"github.com/opscart/k8s-capacity-console/pkg/datasource"
	"github.com/opscart/k8s-capacity-console/pkg/observability"
	"github.com/opscart/k8s-capacity-console/pkg/output"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/storage"
)

var (
	// Global flags
	apiURL       string
	outputFormat string
	envFile      string
	verbose      bool

	// Global state, built in setup
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.Store
	registry *prometheus.Registry
	con      *console.Console
	out      output.Handler
)

func logInfo(format string, args ...any) {
	if outputFormat == output.FormatText {
		fmt.Printf("[INFO] "+format+"\n", args...)
	}
}

func logWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}

// exitOnError releases the store and flushes the logger before exiting,
// since os.Exit skips PersistentPostRun
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		teardown(nil, nil)
		os.Exit(1)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "capacity-console",
		Short: "Cluster capacity and cost simulator console",
		Long: `Inspect a simulated cluster snapshot, plan workload moves between nodes and pools,
and compare historical and projected pool costs.`,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Simulation backend URL (default $SIM_API_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json (default $OUTPUT_FORMAT or text)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional env file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newNodesCmd(),
		newPodsCmd(),
		newPoolsCmd(),
		newMoveCmd(),
		newMoveNamespaceCmd(),
		newDrainNodeCmd(),
		newMovePodsCmd(),
		newDeleteCmd(),
		newResetCmd(),
		newSnapshotsCmd(),
		newRefreshPricesCmd(),
		newLogsCmd(),
		newHistoryCmd(),
		newReportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the console shared by every command
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg = config.NewConfig()
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	outputFormat = cfg.OutputFormat
	cfg.Verbose = verbose
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var err error
	logger, err = newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	out, err = output.NewHandler(cfg.OutputFormat, os.Stdout)
	if err != nil {
		return err
	}

	locale, err := cfg.Locale()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	registry = prometheus.NewRegistry()
	opts := console.Options{
		Backend:  backend.NewClient(cfg.APIURL, cfg.APITimeout, cfg.CaptureTimeout),
		Sorter:   sorting.NewEngine(locale, cfg.AutoscalerPoolMarker),
		Recorder: observability.NewRecorder(registry),
		Logger:   logger,
	}

	if cfg.PrometheusURL != "" {
		promDS, err := datasource.NewPrometheusSource(datasource.Config{
			PrometheusURL: cfg.PrometheusURL,
			Timeout:       cfg.APITimeout,
		}, logger)
		switch {
		case err != nil:
			logWarn("Prometheus initialization failed: %v", err)
		case promDS.IsAvailable(ctx):
			logger.Debug("usage overlay enabled", zap.String("prometheus", cfg.PrometheusURL))
			opts.Usage = promDS
		default:
			logWarn("Prometheus not reachable at %s, usage overlay disabled", cfg.PrometheusURL)
		}
	}

	if cfg.StorageEnabled {
		pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = pg
		opts.Store = pg
	}

	con = console.New(opts)
	return nil
}

// teardown is safe to call more than once
func teardown(_ *cobra.Command, _ []string) {
	if store != nil {
		store.Close()
		store = nil
	}
	if logger != nil {
		logger.Sync()
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// load fetches the simulated state, the first step of every read command
func load(ctx context.Context) {
	exitOnError(con.Refresh(ctx))
}
