package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tickviewer/internal/config"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/operations"
	"tickviewer/pkg/contracts"
	"tickviewer/pkg/contracts/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Conversion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// cliFlags holds the command line overrides. Only flags that were set on
// the command line replace configured values.
type cliFlags struct {
	inputDir  string
	outputDir string
	workers   int
	force     bool
	date      string
	summary   bool
	set       map[string]bool
}

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("converter", flag.ContinueOnError)
	f := &cliFlags{set: map[string]bool{}}

	fs.StringVar(&f.inputDir, "in", "", "input root holding <date>/<stock>.parquet files")
	fs.StringVar(&f.outputDir, "out", "", "output root for <date>/<stock>.json documents")
	fs.IntVar(&f.workers, "workers", 0, "number of files converted concurrently (default min(4, NumCPU))")
	fs.BoolVar(&f.force, "force", false, "reconvert files whose output is up to date")
	fs.StringVar(&f.date, "date", "", "only convert this date (YYYYMMDD)")
	fs.BoolVar(&f.summary, "summary", false, "write summary.csv and summary.xlsx per date")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overlays the flags that were set onto cfg.
func (f *cliFlags) apply(cfg *config.ConverterConfig) {
	if f.set["in"] {
		cfg.InputDir = f.inputDir
	}
	if f.set["out"] {
		cfg.OutputDir = f.outputDir
	}
	if f.set["workers"] {
		cfg.Workers = f.workers
	}
	if f.set["force"] {
		cfg.Force = f.force
	}
	if f.set["summary"] {
		cfg.WriteSummary = f.summary
	}
}

func run(ctx context.Context, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}
	flags.apply(&cfg.Converter)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid converter options: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.ServiceName = cfg.Telemetry.ServiceName + "-converter"
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateConversionMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	opts := operations.OptionsFromConfig(cfg.Converter)
	opts.Date = flags.date

	logger.Info("Starting tick converter",
		slog.String("version", contracts.Version),
		slog.String("input_dir", opts.InputDir),
		slog.String("output_dir", opts.OutputDir),
		slog.Int("workers", opts.Workers),
		slog.Bool("force", opts.Force),
		slog.String("date", opts.Date),
		slog.Bool("summary", opts.WriteSummary))

	runner := operations.NewBatchRunner(logger,
		operations.WithMetrics(metrics),
		operations.WithTracer(providers.Tracer),
	)

	ctx = infrastructure.EnsureTraceID(ctx)
	_, err = runner.Run(ctx, opts, progressLogger(logger))
	return err
}

// progressLogger reports failed files as warnings and everything else at
// debug level.
func progressLogger(logger *slog.Logger) operations.ReporterFunc {
	return func(ctx context.Context, p domain.FileProgress) {
		attrs := []slog.Attr{
			slog.String("date", p.Date),
			slog.String("stock_code", p.StockCode),
			slog.String("outcome", string(p.Outcome)),
			slog.Int("done", p.Done),
			slog.Int("total", p.Total),
		}
		if p.Outcome == domain.OutcomeFailed {
			attrs = append(attrs, slog.String("error", p.Error))
			logger.LogAttrs(ctx, slog.LevelWarn, "File conversion failed", attrs...)
			return
		}
		logger.LogAttrs(ctx, slog.LevelDebug, "File processed", attrs...)
	}
}
