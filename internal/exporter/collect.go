package exporter

import (
	"encoding/json"
	"log/slog"
	"os"

	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/files"
	"tickviewer/pkg/contracts/domain"
)

// CollectSummaries reads every document in dateDir and returns the sorted
// summary rows of those that carry stats. Unreadable documents are logged
// and left out.
func (s *SummaryExporter) CollectSummaries(dateDir string) ([]domain.StockSummary, error) {
	docs, err := files.NewDiscovery(s.logger).Documents(dateDir)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list documents", err)
	}

	rows := make([]domain.StockSummary, 0, len(docs))
	for _, f := range docs {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			s.logger.Warn("Skipping unreadable document",
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
			continue
		}

		var doc domain.StockDayDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn("Skipping malformed document",
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		if doc.StockCode == "" {
			doc.StockCode = f.Stem
		}

		if row, ok := SummaryFromDocument(&doc); ok {
			rows = append(rows, row)
		}
	}

	SortSummaries(rows)
	return rows, nil
}
