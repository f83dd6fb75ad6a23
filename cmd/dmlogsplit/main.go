// Command dmlogsplit is a parallel stream processor for XML-format
// cellular baseband log files. It splits the input into top-level
// dm_log_packet records, fans the per-record work out across a worker
// pool, and reassembles the output in strict input order.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dmlogsplit/dmlogsplit/internal/config"
	"github.com/dmlogsplit/dmlogsplit/internal/engine"
	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/input"
	"github.com/dmlogsplit/dmlogsplit/internal/logging"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/sink"
)

// Version is set at build time.
var (
	Version = "0.1.0"
	GitSHA  = "dev"
)

var (
	flagThreads     int
	flagOutput      string
	flagExtract     string
	flagRange       string
	flagDedup       bool
	flagReorder     int64
	flagFilterType  string
	flagMetricsAddr string
	flagLogFormat   string
	flagLogLevel    string
	flagQuiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "dmlogsplit [flags] [file ...]",
	Short: "Parallel processor for dm_log_packet XML log files",
	Long: `dmlogsplit splits concatenated <dm_log_packet> records, runs the
selected per-packet mode across a pool of workers, and emits the
results in strict input order.

If no input file is provided, it reads from stdin. Exactly one mode
flag is required: --extract, --range, --dedup, --reorder or
--filter-type.`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().IntVarP(&flagThreads, "thread", "j", config.ThreadDefault,
		"extractor worker count (1..256)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"output sink: path, file://, s3:// or gs:// URI (default stdout)")
	rootCmd.Flags().StringVar(&flagExtract, "extract", "",
		"comma-separated extractor names to enable")
	rootCmd.Flags().StringVar(&flagRange, "range", "",
		"file with inclusive keep intervals, two unix timestamps per line")
	rootCmd.Flags().BoolVar(&flagDedup, "dedup", false,
		"drop packets older than the newest already emitted")
	rootCmd.Flags().Int64Var(&flagReorder, "reorder", 0,
		"stably sort packets within a window of this many microseconds")
	rootCmd.Flags().StringVar(&flagFilterType, "filter-type", "",
		"emit packets whose type matches this regex")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "",
		"address for the Prometheus /metrics endpoint (disabled when empty)")
	rootCmd.Flags().StringVar(&flagLogFormat, "log-format", "text",
		"log format: text or json")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "warn",
		"log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false,
		"suppress the run summary table")
}

// buildConfig translates the flag set into a validated Config.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := &config.Config{
		Inputs:      args,
		Threads:     flagThreads,
		Output:      flagOutput,
		MetricsAddr: flagMetricsAddr,
		LogFormat:   flagLogFormat,
		LogLevel:    flagLogLevel,
		Quiet:       flagQuiet,
	}

	modes := 0
	if cmd.Flags().Changed("extract") {
		cfg.Mode = config.ModeExtract
		cfg.ExtractActions = config.ParseExtractList(flagExtract)
		modes++
	}
	if cmd.Flags().Changed("range") {
		cfg.Mode = config.ModeRange
		cfg.RangePath = flagRange
		modes++
	}
	if flagDedup {
		cfg.Mode = config.ModeDedup
		modes++
	}
	if cmd.Flags().Changed("reorder") {
		cfg.Mode = config.ModeReorder
		cfg.ReorderToleranceMicros = flagReorder
		modes++
	}
	if cmd.Flags().Changed("filter-type") {
		cfg.Mode = config.ModeTypeFilter
		cfg.TypePattern = flagFilterType
		modes++
	}
	if modes > 1 {
		return nil, errs.NewArgumentError(
			"mode flags --extract, --range, --dedup, --reorder and --filter-type are mutually exclusive")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	runID := uuid.New().String()
	log := logging.RunLogger(logging.GenerateCorrelationID(), runID, cfg.Mode.String())
	log.Info("starting", "version", Version, "git_sha", GitSHA,
		"mode", cfg.Describe(), "threads", cfg.Threads)

	metrics.Init("")
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
				slog.Warn("metrics server exited", "error", err)
			}
		}()
	}

	in, err := input.Open(cfg.Inputs)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := sink.Open(cfg.Output)
	if err != nil {
		return err
	}

	stats, runErr := engine.New(cfg, out, os.Stderr).Run(in.Inputs)

	closeErr := out.Close()
	if runErr != nil {
		log.Error("run failed", "error", runErr, "run_id", runID)
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}

	if !cfg.Quiet {
		printSummary(stats)
	}
	return nil
}

// printSummary renders the per-run counters to standard error. It is
// diagnostic only and never participates in the ordering contract.
func printSummary(stats engine.Stats) {
	table := tablewriter.NewWriter(os.Stderr)
	table.SetHeader([]string{"Counter", "Value"})
	table.Append([]string{"records", strconv.FormatUint(stats.Records, 10)})
	table.Append([]string{"warnings", strconv.FormatUint(stats.Warnings, 10)})
	table.Append([]string{"elapsed", stats.Elapsed.String()})
	table.Render()
}

// reportError writes the error to stderr. The message already carries
// its taxonomy prefix (argument error, parse error, program bug,
// resource error, input error); unknown errors from cobra or the
// standard library are reported as-is.
func reportError(err error) {
	fmt.Fprintf(os.Stderr, "dmlogsplit: %v\n", err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}
