package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tickviewer/internal/config"
	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/shared/testutil"
	"tickviewer/pkg/contracts/domain"
)

func sampleDocument() *domain.StockDayDocument {
	return &domain.StockDayDocument{
		Chart: &domain.Chart{
			Timestamps:   []string{"2024-01-02 09:30:00.000100", "2024-01-02 09:30:00.000200"},
			Prices:       []float64{10, 11},
			Volumes:      []int64{5, 5},
			TotalVolumes: []int64{5, 10},
			VWAP:         []float64{10, 10.5},
		},
		DepthHistory: []domain.DepthSnapshot{},
		Trades:       []domain.Trade{},
		Stats: &domain.Stats{
			CurrentPrice: 11, OpenPrice: 10, HighPrice: 11, LowPrice: 10, AvgPrice: 10.5,
			TotalVolume: 10, TradeCount: 2, Change: 1, ChangePct: 10,
		},
		StockCode: "ACME",
		Date:      "20240102",
	}
}

func sampleSummaries() []domain.StockSummary {
	return []domain.StockSummary{
		{StockCode: "ZZZ", Date: "20240102", Stats: domain.Stats{CurrentPrice: 0.515, OpenPrice: 0.5, TradeCount: 1, TotalVolume: 100, ChangePct: 3}},
		{StockCode: "ACME", Date: "20240102", Stats: domain.Stats{CurrentPrice: 11, OpenPrice: 10, TradeCount: 2, TotalVolume: 10, Change: 1, ChangePct: 10}},
	}
}

func TestEncodeDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeDocument(&buf, sampleDocument()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"chart\": {\n    \"timestamps\""))
	assert.Contains(t, out, `"depth": null`)
	assert.Contains(t, out, `"depth_history": []`)
	assert.Contains(t, out, `"trades": []`)
	assert.Contains(t, out, `"stock_code": "ACME"`)
}

func TestDocumentWriter_WriteDocument(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := NewDocumentWriter(logger)
	root := t.TempDir()
	path := config.DocumentPath(root, "20240102", "ACME")

	require.NoError(t, w.WriteDocument(path, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got domain.StockDayDocument
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ACME", got.StockCode)
	assert.Equal(t, 2, got.Stats.TradeCount)

	// Overwrite leaves no temp files behind.
	doc := sampleDocument()
	doc.Stats.TradeCount = 3
	require.NoError(t, w.WriteDocument(path, doc))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ACME.json", entries[0].Name())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trade_count": 3`)
}

func TestDocumentWriter_Errors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	w := NewDocumentWriter(logger)
	root := t.TempDir()

	err := w.WriteDocument(filepath.Join(root, "x.json"), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	// A file where the date directory should be.
	blocker := filepath.Join(root, "20240102")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err = w.WriteDocument(config.DocumentPath(root, "20240102", "ACME"), sampleDocument())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestSummaryFromDocument(t *testing.T) {
	row, ok := SummaryFromDocument(sampleDocument())
	require.True(t, ok)
	assert.Equal(t, "ACME", row.StockCode)
	assert.Equal(t, "20240102", row.Date)
	assert.Equal(t, 10.5, row.AvgPrice)

	doc := sampleDocument()
	doc.Stats = nil
	_, ok = SummaryFromDocument(doc)
	assert.False(t, ok)

	_, ok = SummaryFromDocument(nil)
	assert.False(t, ok)
}

func TestSummaryExporter_WriteCSV(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewSummaryExporter(logger)
	rows := sampleSummaries()
	SortSummaries(rows)

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf, rows))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, SummaryHeaders, records[0])
	assert.Equal(t, []string{"ACME", "20240102", "11", "10", "0", "0", "0", "10", "2", "1", "10.00"}, records[1])
	assert.Equal(t, "ZZZ", records[2][0])
	assert.Equal(t, "0.515", records[2][2])
}

func TestSummaryExporter_WriteXLSX(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewSummaryExporter(logger)
	rows := sampleSummaries()
	SortSummaries(rows)

	var buf bytes.Buffer
	require.NoError(t, s.WriteXLSX(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheetRows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, sheetRows, 3)
	assert.Equal(t, SummaryHeaders, sheetRows[0])
	assert.Equal(t, "ACME", sheetRows[1][0])
	assert.Equal(t, "ZZZ", sheetRows[2][0])
	assert.Equal(t, "2", sheetRows[1][8])
}

func TestSummaryExporter_ExportFiles(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	s := NewSummaryExporter(logger)
	root := t.TempDir()

	require.NoError(t, s.ExportFiles(root, "20240102", sampleSummaries()))

	assert.FileExists(t, config.SummaryPath(root, "20240102", FormatCSV))
	assert.FileExists(t, config.SummaryPath(root, "20240102", FormatXLSX))
	assert.True(t, logs.ContainsMessage("Summary exported"))

	data, err := os.ReadFile(config.SummaryPath(root, "20240102", FormatCSV))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data[len(utf8BOM):])), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "ACME,"))
}

func TestSummaryExporter_EmptyRows(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewSummaryExporter(logger)

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf, nil))
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "10", formatPrice(10))
	assert.Equal(t, "0.515", formatPrice(0.515))
	assert.Equal(t, "-1.25", formatPrice(-1.25))
	assert.Equal(t, "10.00", formatPercent(10))
	assert.Equal(t, "-3.33", formatPercent(-3.333))
	assert.Equal(t, "42", formatInt(42))
}

func TestSummaryExporter_CollectSummaries(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	s := NewSummaryExporter(logger)
	w := NewDocumentWriter(logger)
	root := t.TempDir()
	dateDir := config.DateDir(root, "20240102")

	withStats := sampleDocument()
	require.NoError(t, w.WriteDocument(config.DocumentPath(root, "20240102", "ACME"), withStats))

	other := sampleDocument()
	other.StockCode = ""
	other.Stats.CurrentPrice = 4
	require.NoError(t, w.WriteDocument(config.DocumentPath(root, "20240102", "AAA"), other))

	depthOnly := sampleDocument()
	depthOnly.StockCode = "DEPTH"
	depthOnly.Stats = nil
	require.NoError(t, w.WriteDocument(config.DocumentPath(root, "20240102", "DEPTH"), depthOnly))

	require.NoError(t, os.WriteFile(config.DocumentPath(root, "20240102", "BROKEN"), []byte("{"), 0644))
	require.NoError(t, s.ExportFiles(root, "20240102", sampleSummaries()))

	rows, err := s.CollectSummaries(dateDir)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAA", rows[0].StockCode, "stem fills a missing stock code")
	assert.Equal(t, 4.0, rows[0].CurrentPrice)
	assert.Equal(t, "ACME", rows[1].StockCode)
	assert.True(t, logs.ContainsMessage("Skipping malformed document"))

	_, err = s.CollectSummaries(filepath.Join(root, "19990101"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
