package operations

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tickviewer/internal/config"
	"tickviewer/internal/dataprocessing"
	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/exporter"
	"tickviewer/internal/files"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/validation"
	"tickviewer/pkg/contracts/domain"
)

// BatchRunner converts every stale input file under an input root.
// It is safe to call Run from several goroutines, though the Tracker
// allows only one run at a time.
type BatchRunner struct {
	processor *dataprocessing.Processor
	documents *exporter.DocumentWriter
	summaries *exporter.SummaryExporter
	discovery *files.Discovery
	files     *files.Manager
	validator *validation.FileValidator
	metrics   *infrastructure.ConversionMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// RunnerOption customises a BatchRunner.
type RunnerOption func(*BatchRunner)

// WithMetrics records per-file and per-batch metrics.
func WithMetrics(metrics *infrastructure.ConversionMetrics) RunnerOption {
	return func(r *BatchRunner) { r.metrics = metrics }
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *BatchRunner) { r.tracer = tracer }
}

// NewBatchRunner creates a runner.
func NewBatchRunner(logger *slog.Logger, opts ...RunnerOption) *BatchRunner {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "batch_runner"))

	r := &BatchRunner{
		processor: dataprocessing.NewProcessor(logger),
		documents: exporter.NewDocumentWriter(logger),
		summaries: exporter.NewSummaryExporter(logger),
		discovery: files.NewDiscovery(logger),
		files:     files.NewManager(logger),
		validator: validation.NewFileValidator(logger),
		tracer:    otel.Tracer(TracerName),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run converts the files selected by opts. Per-file failures are counted in
// the result, never returned. A missing input root ends the run early with
// an empty result and no error. Errors are returned for invalid options, an
// unusable output root and cancellation.
func (r *BatchRunner) Run(ctx context.Context, opts Options, reporter ProgressReporter) (*domain.ConversionResult, error) {
	start := time.Now()
	logger := infrastructure.LoggerWithContext(ctx, r.logger)

	if opts.Workers < 1 {
		opts.Workers = config.DefaultWorkers()
	}
	if opts.Date != "" && !validation.IsDate(opts.Date) {
		return nil, apperrors.NewAppValidationError("date must be 8 digits (YYYYMMDD)").
			WithContext("date", opts.Date)
	}

	ctx, span := r.tracer.Start(ctx, "batch_convert", trace.WithAttributes(
		attribute.String("input_dir", opts.InputDir),
		attribute.String("output_dir", opts.OutputDir),
		attribute.Int("workers", opts.Workers),
		attribute.Bool("force", opts.Force),
	))
	defer span.End()

	r.metrics.RecordBatch(ctx, 1)
	defer r.metrics.RecordBatch(ctx, -1)

	result := &domain.ConversionResult{Dates: []string{}}

	if err := r.validator.ValidateInputDirectory(opts.InputDir); err != nil {
		if errors.Is(err, validation.ErrInputRootMissing) {
			logger.WarnContext(ctx, "Nothing to convert, input directory is missing",
				slog.String("input_dir", opts.InputDir))
			result.Duration = time.Since(start)
			return result, nil
		}
		return nil, err
	}
	if err := r.validator.ValidateOutputDirectory(opts.OutputDir); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "output directory unusable")
		return nil, err
	}

	plan, err := r.plan(opts)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, p := range plan {
		total += len(p.jobs)
	}
	logger.InfoContext(ctx, "Starting conversion",
		slog.Int("dates", len(plan)),
		slog.Int("files", total),
		slog.Int("workers", opts.Workers),
		slog.Bool("force", opts.Force))

	progress := NewProgressTracker(total)
	var mu sync.Mutex

	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Dates = append(result.Dates, p.date)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)

		for _, job := range p.jobs {
			job := job
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				outcome, convErr := r.convert(gctx, job, opts.Force)

				mu.Lock()
				switch outcome {
				case domain.OutcomeConverted:
					result.Converted++
				case domain.OutcomeSkipped:
					result.Skipped++
				case domain.OutcomeEmpty:
					result.Empty++
				default:
					result.Failed++
				}
				mu.Unlock()

				done := progress.Increment()
				if reporter != nil {
					fp := domain.FileProgress{
						Date:      job.Date,
						StockCode: job.StockCode,
						Outcome:   outcome,
						Done:      done,
						Total:     total,
					}
					if convErr != nil {
						fp.Error = convErr.Error()
					}
					reporter.Report(gctx, fp)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "conversion cancelled")
			return nil, err
		}

		if opts.WriteSummary {
			r.writeSummary(ctx, opts.OutputDir, p.date)
		}

		done, planned, pct := progress.GetProgress()
		logger.InfoContext(ctx, "Date converted",
			slog.String("date", p.date),
			slog.Int("done", done),
			slog.Int("total", planned),
			slog.Float64("percent", pct),
			slog.String("eta", progress.GetETA()))
	}

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("converted", result.Converted),
		attribute.Int("failed", result.Failed),
		attribute.Int("skipped", result.Skipped),
		attribute.Int("empty", result.Empty),
	)
	logger.InfoContext(ctx, "Conversion complete",
		slog.Int("converted", result.Converted),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("empty", result.Empty),
		slog.Duration("elapsed", result.Duration))
	return result, nil
}

type datePlan struct {
	date string
	jobs []Job
}

// plan lists the jobs per date in ascending date order. Two jobs never share
// an output path.
func (r *BatchRunner) plan(opts Options) ([]datePlan, error) {
	dates, err := r.discovery.DateDirs(opts.InputDir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to scan input directory", err)
	}

	if opts.Date != "" {
		found := false
		for _, d := range dates {
			if d == opts.Date {
				found = true
				break
			}
		}
		if !found {
			r.logger.Warn("Requested date not found in input", slog.String("date", opts.Date))
			return nil, nil
		}
		dates = []string{opts.Date}
	}

	seen := make(map[string]struct{})
	plan := make([]datePlan, 0, len(dates))
	for _, date := range dates {
		inputs, err := r.discovery.ParquetFiles(config.DateDir(opts.InputDir, date))
		if err != nil {
			r.logger.Error("Failed to list date directory",
				slog.String("date", date),
				slog.String("error", err.Error()))
			continue
		}

		p := datePlan{date: date, jobs: make([]Job, 0, len(inputs))}
		for _, in := range inputs {
			out := config.DocumentPath(opts.OutputDir, date, in.Stem)
			if _, dup := seen[out]; dup {
				r.logger.Warn("Duplicate output path, file ignored",
					slog.String("input", in.Path),
					slog.String("output", out))
				continue
			}
			seen[out] = struct{}{}
			p.jobs = append(p.jobs, Job{
				Date:       date,
				StockCode:  in.Stem,
				InputPath:  in.Path,
				OutputPath: out,
			})
		}
		plan = append(plan, p)
	}
	return plan, nil
}

// convert processes one job. The returned error explains a failed outcome.
func (r *BatchRunner) convert(ctx context.Context, job Job, force bool) (domain.FileOutcome, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "convert_file", trace.WithAttributes(
		attribute.String("date", job.Date),
		attribute.String("stock_code", job.StockCode),
	))
	defer span.End()

	logger := infrastructure.LoggerWithContext(ctx, r.logger).With(
		slog.String("date", job.Date),
		slog.String("stock_code", job.StockCode))

	outcome, trades, depths, err := r.convertFile(ctx, job, force)

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "Conversion failed",
			slog.String("input", job.InputPath),
			slog.String("error", err.Error()))
	} else {
		logger.DebugContext(ctx, "File processed", slog.String("outcome", string(outcome)))
	}

	r.metrics.RecordFile(ctx, string(outcome), time.Since(start), trades, depths)
	return outcome, err
}

func (r *BatchRunner) convertFile(ctx context.Context, job Job, force bool) (domain.FileOutcome, int, int, error) {
	needed, err := r.files.NeedsConversion(job.InputPath, job.OutputPath, force)
	if err != nil {
		return domain.OutcomeFailed, 0, 0, err
	}
	if !needed {
		return domain.OutcomeSkipped, 0, 0, nil
	}

	doc, err := r.processor.ConvertFile(ctx, job.InputPath)
	if errors.Is(err, dataprocessing.ErrEmptyInput) {
		return domain.OutcomeEmpty, 0, 0, nil
	}
	if err != nil {
		return domain.OutcomeFailed, 0, 0, err
	}
	if doc.StockCode == "" {
		doc.StockCode = job.StockCode
	}

	if err := r.documents.WriteDocument(job.OutputPath, doc); err != nil {
		return domain.OutcomeFailed, 0, 0, err
	}
	return domain.OutcomeConverted, len(doc.Trades), len(doc.DepthHistory), nil
}

func (r *BatchRunner) writeSummary(ctx context.Context, outputRoot, date string) {
	logger := infrastructure.LoggerWithContext(ctx, r.logger)

	dateDir := config.DateDir(outputRoot, date)
	if !config.DirExists(dateDir) {
		return
	}
	rows, err := r.summaries.CollectSummaries(dateDir)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to collect summaries",
			slog.String("date", date),
			slog.String("error", err.Error()))
		return
	}
	if len(rows) == 0 {
		logger.DebugContext(ctx, "No stats to summarise", slog.String("date", date))
		return
	}
	if err := r.summaries.ExportFiles(outputRoot, date, rows); err != nil {
		logger.ErrorContext(ctx, "Failed to write summary",
			slog.String("date", date),
			slog.String("error", err.Error()))
	}
}
