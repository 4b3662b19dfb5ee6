// Package exporter writes converted stock-day documents and per-date summaries.
//
// DocumentWriter stores one StockDayDocument as indented JSON. The file is
// written to a temporary name in the destination directory and renamed into
// place, so readers never see a partial document.
//
// SummaryExporter renders one stats row per stock as CSV (CSVWriter) or as an
// Excel workbook (excelize), either to an io.Writer for HTTP responses or to
// summary.csv / summary.xlsx next to the documents of a date.
//
// Example usage:
//
//	writer := exporter.NewDocumentWriter(logger)
//	err := writer.WriteDocument(config.DocumentPath(out, date, code), doc)
//
//	summaries := exporter.NewSummaryExporter(logger)
//	err = summaries.ExportFiles(out, date, rows)
package exporter
