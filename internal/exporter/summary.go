package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"tickviewer/internal/config"
	apperrors "tickviewer/internal/errors"
	"tickviewer/pkg/contracts/domain"
)

// Summary file formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SummarySheet is the worksheet name used in summary workbooks.
const SummarySheet = "Summary"

// SummaryHeaders are the column titles of a summary table.
var SummaryHeaders = []string{
	"StockCode", "Date", "CurrentPrice", "OpenPrice", "HighPrice", "LowPrice",
	"AvgPrice", "TotalVolume", "TradeCount", "Change", "ChangePct",
}

// SummaryFromDocument returns the summary row of doc. ok is false when the
// document has no trades and so no stats.
func SummaryFromDocument(doc *domain.StockDayDocument) (summary domain.StockSummary, ok bool) {
	if doc == nil || doc.Stats == nil {
		return domain.StockSummary{}, false
	}
	return domain.StockSummary{
		StockCode: doc.StockCode,
		Date:      doc.Date,
		Stats:     *doc.Stats,
	}, true
}

// SortSummaries orders rows by stock code.
func SortSummaries(rows []domain.StockSummary) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].StockCode < rows[j].StockCode
	})
}

// SummaryExporter renders per-date stats tables.
type SummaryExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewSummaryExporter creates a new summary exporter
func NewSummaryExporter(logger *slog.Logger) *SummaryExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "summary_exporter"))
	return &SummaryExporter{
		csvWriter: NewCSVWriter(logger),
		logger:    logger,
	}
}

// WriteCSV renders rows as CSV to w.
func (s *SummaryExporter) WriteCSV(w io.Writer, rows []domain.StockSummary) error {
	return s.csvWriter.Encode(w, WriteOptions{
		Headers:   SummaryHeaders,
		Records:   summaryRecords(rows),
		BOMPrefix: true,
	})
}

// WriteXLSX renders rows as a single-sheet workbook to w.
func (s *SummaryExporter) WriteXLSX(w io.Writer, rows []domain.StockSummary) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportFiles writes summary.csv and summary.xlsx under outputRoot/date.
func (s *SummaryExporter) ExportFiles(outputRoot, date string, rows []domain.StockSummary) error {
	SortSummaries(rows)

	csvPath := config.SummaryPath(outputRoot, date, FormatCSV)
	if err := writeFileAtomic(csvPath, func(w io.Writer) error {
		return s.WriteCSV(w, rows)
	}); err != nil {
		return apperrors.NewStorageError("failed to write "+csvPath, err)
	}

	xlsxPath := config.SummaryPath(outputRoot, date, FormatXLSX)
	if err := writeFileAtomic(xlsxPath, func(w io.Writer) error {
		return s.WriteXLSX(w, rows)
	}); err != nil {
		return apperrors.NewStorageError("failed to write "+xlsxPath, err)
	}

	s.logger.Info("Summary exported",
		slog.String("date", date),
		slog.Int("stocks", len(rows)),
		slog.String("csv", csvPath),
		slog.String("xlsx", xlsxPath))
	return nil
}

func summaryRecords(rows []domain.StockSummary) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.StockCode,
			row.Date,
			formatPrice(row.CurrentPrice),
			formatPrice(row.OpenPrice),
			formatPrice(row.HighPrice),
			formatPrice(row.LowPrice),
			formatPrice(row.AvgPrice),
			formatInt(row.TotalVolume),
			formatInt(int64(row.TradeCount)),
			formatPrice(row.Change),
			formatPercent(row.ChangePct),
		})
	}
	return records
}

func buildWorkbook(rows []domain.StockSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(SummaryHeaders))
		_ = f.SetCellStyle(SummarySheet, "A1", lastCol+"1", bold)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			row.StockCode,
			row.Date,
			row.CurrentPrice,
			row.OpenPrice,
			row.HighPrice,
			row.LowPrice,
			row.AvgPrice,
			row.TotalVolume,
			row.TradeCount,
			row.Change,
			row.ChangePct,
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(SummarySheet, "A", "A", 14)
	return f, nil
}
