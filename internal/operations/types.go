package operations

import (
	"context"

	"tickviewer/internal/config"
	"tickviewer/pkg/contracts/domain"
	"tickviewer/pkg/contracts/events"
)

// TracerName is the instrumentation scope of conversion spans.
const TracerName = "tickviewer.operations"

// Options configures one batch run.
type Options struct {
	InputDir     string
	OutputDir    string
	Workers      int
	Force        bool
	Date         string // restrict the run to one date; empty means all
	WriteSummary bool
}

// OptionsFromConfig returns run options for the configured converter.
func OptionsFromConfig(cfg config.ConverterConfig) Options {
	return Options{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		Workers:      cfg.Workers,
		Force:        cfg.Force,
		WriteSummary: cfg.WriteSummary,
	}
}

// Job is one input file scheduled for conversion.
type Job struct {
	Date       string
	StockCode  string
	InputPath  string
	OutputPath string
}

// ProgressReporter receives one event per processed file. Implementations
// must be safe for concurrent use.
type ProgressReporter interface {
	Report(ctx context.Context, progress domain.FileProgress)
}

// Broadcaster publishes messages to connected viewers.
type Broadcaster interface {
	Broadcast(msg events.WebSocketMessage)
}

// ReporterFunc adapts a function to ProgressReporter.
type ReporterFunc func(ctx context.Context, progress domain.FileProgress)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, progress domain.FileProgress) {
	f(ctx, progress)
}
