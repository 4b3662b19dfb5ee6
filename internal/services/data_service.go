package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"

	"tickviewer/internal/config"
	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/exporter"
	"tickviewer/internal/files"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/validation"
	"tickviewer/pkg/contracts/domain"
)

// DataService reads converted documents from the output root.
type DataService struct {
	outputDir string
	discovery *files.Discovery
	files     *files.Manager
	summaries *exporter.SummaryExporter
	logger    *slog.Logger
}

// NewDataService creates a data service over outputDir.
func NewDataService(outputDir string, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "data_service"))

	logger.Info("DataService initialized", slog.String("output_dir", outputDir))

	return &DataService{
		outputDir: outputDir,
		discovery: files.NewDiscovery(logger),
		files:     files.NewManager(logger),
		summaries: exporter.NewSummaryExporter(logger),
		logger:    logger,
	}
}

// ListDates returns the converted dates, newest first. A missing output
// root yields an empty list.
func (s *DataService) ListDates(ctx context.Context) ([]string, error) {
	dates, err := s.discovery.DateDirs(s.outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		infrastructure.LoggerWithContext(ctx, s.logger).DebugContext(ctx, "Output directory missing",
			slog.String("output_dir", s.outputDir))
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list dates", err)
	}
	if dates == nil {
		dates = []string{}
	}

	files.SortDescending(dates)
	return dates, nil
}

// ListStocks returns the stock codes converted for date in ascending order.
func (s *DataService) ListStocks(ctx context.Context, date string) ([]string, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}

	dir := config.DateDir(s.outputDir, date)
	if !config.DirExists(dir) {
		return nil, ErrDateNotFound
	}

	docs, err := s.discovery.Documents(dir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list stocks", err)
	}

	stocks := files.Stems(docs)
	sort.Strings(stocks)

	infrastructure.LoggerWithContext(ctx, s.logger).DebugContext(ctx, "Listed stocks",
		slog.String("date", date),
		slog.Int("count", len(stocks)))
	return stocks, nil
}

// GetDocument returns the stored document bytes unchanged.
func (s *DataService) GetDocument(ctx context.Context, date, stockCode string) ([]byte, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}
	if !validation.IsStockCode(stockCode) {
		return nil, apperrors.NewAppValidationError("invalid stock code").
			WithContext("stock_code", stockCode)
	}

	data, err := s.files.ReadFile(config.DocumentPath(s.outputDir, date, stockCode))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrStockDataNotFound
	}
	if err != nil {
		infrastructure.LoggerWithContext(ctx, s.logger).ErrorContext(ctx, "Failed to read document",
			slog.String("date", date),
			slog.String("stock_code", stockCode),
			slog.String("error", err.Error()))
		return nil, apperrors.NewStorageError("failed to read document", err)
	}
	return data, nil
}

// GetSummary returns one stats row per stock with trades on date.
func (s *DataService) GetSummary(ctx context.Context, date string) ([]domain.StockSummary, error) {
	if err := checkDate(date); err != nil {
		return nil, err
	}

	dir := config.DateDir(s.outputDir, date)
	if !config.DirExists(dir) {
		return nil, ErrDateNotFound
	}
	return s.summaries.CollectSummaries(dir)
}

// WriteSummary renders the summary of date to w as CSV or XLSX.
func (s *DataService) WriteSummary(ctx context.Context, w io.Writer, date, format string) error {
	rows, err := s.GetSummary(ctx, date)
	if err != nil {
		return err
	}

	switch format {
	case exporter.FormatCSV:
		return s.summaries.WriteCSV(w, rows)
	case exporter.FormatXLSX:
		return s.summaries.WriteXLSX(w, rows)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported summary format %q", format))
	}
}

func checkDate(date string) error {
	if !validation.IsDate(date) {
		return apperrors.NewAppValidationError("date must be 8 digits (YYYYMMDD)").
			WithContext("date", date)
	}
	return nil
}
