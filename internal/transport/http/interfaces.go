package http

import (
	"context"
	"io"

	"tickviewer/internal/services"
	api "tickviewer/pkg/contracts/api/v1"
	"tickviewer/pkg/contracts/domain"
)

// DataServiceInterface defines the read side of the viewer API
type DataServiceInterface interface {
	ListDates(ctx context.Context) ([]string, error)
	ListStocks(ctx context.Context, date string) ([]string, error)
	GetDocument(ctx context.Context, date, stockCode string) ([]byte, error)
	GetSummary(ctx context.Context, date string) ([]domain.StockSummary, error)
	WriteSummary(ctx context.Context, w io.Writer, date, format string) error
}

// ConversionServiceInterface starts and reports background conversions
type ConversionServiceInterface interface {
	StartConversion(ctx context.Context, req api.ConvertRequest) (api.ConvertResponse, error)
	Status(ctx context.Context) api.OperationStatusResponse
}

// HealthServiceInterface reports server health and build information
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionResponse
}
