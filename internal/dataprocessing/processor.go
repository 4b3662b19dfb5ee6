package dataprocessing

import (
	"context"
	"errors"
	"log/slog"

	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/validation"
	"tickviewer/pkg/contracts/domain"
)

// Processor converts one stock-day file into a document.
// A Processor holds no per-file state and is safe for concurrent use.
type Processor struct {
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewProcessor creates a processor
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "processor"))
	return &Processor{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
}

// ConvertFile reads, decodes and assembles the file at path.
//
// Decode failures come back as decode AppErrors wrapping the ColumnError, so
// both errors.Is(err, ErrTypeMismatch) and apperrors.IsType work on them.
// ErrEmptyInput is returned unwrapped.
func (p *Processor) ConvertFile(ctx context.Context, path string) (*domain.StockDayDocument, error) {
	logger := infrastructure.LoggerWithContext(ctx, p.logger).With(slog.String("file", path))

	if err := p.validator.ValidateParquetFile(path); err != nil {
		return nil, err
	}

	table, err := ReadParquet(path)
	if err != nil {
		return nil, err
	}

	decoded, err := Decode(table)
	if err != nil {
		return nil, apperrors.NewDecodeError("decode "+path, err)
	}

	doc, err := Assemble(decoded)
	if errors.Is(err, ErrEmptyInput) {
		logger.Debug("File has no trade or depth rows")
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("File converted",
		slog.String("stock_code", doc.StockCode),
		slog.String("date", doc.Date),
		slog.Int("trades", len(doc.Trades)),
		slog.Int("depths", len(doc.DepthHistory)))
	return doc, nil
}
