package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	apperrors "tickviewer/internal/errors"
	"tickviewer/pkg/contracts/domain"
)

// DocumentWriter stores converted documents as indented JSON.
type DocumentWriter struct {
	logger *slog.Logger
}

// NewDocumentWriter creates a document writer
func NewDocumentWriter(logger *slog.Logger) *DocumentWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentWriter{logger: logger.With(slog.String("component", "document_writer"))}
}

// EncodeDocument writes doc to w as JSON indented with two spaces.
func EncodeDocument(w io.Writer, doc *domain.StockDayDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteDocument writes doc to path, replacing any previous version. Failures
// are storage AppErrors.
func (d *DocumentWriter) WriteDocument(path string, doc *domain.StockDayDocument) error {
	if doc == nil {
		return apperrors.NewAppValidationError("refusing to write nil document to " + path)
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		return EncodeDocument(w, doc)
	})
	if err != nil {
		d.logger.Error("Failed to write document",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}

	d.logger.Debug("Document written",
		slog.String("path", path),
		slog.String("stock_code", doc.StockCode),
		slog.String("date", doc.Date))
	return nil
}
