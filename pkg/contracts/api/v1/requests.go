// Package api contains the request and response contracts of the viewer HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"tickviewer/pkg/contracts/domain"
)

// Path parameters

// StockParams identifies one stock-day document.
type StockParams struct {
	Date      string `json:"date" param:"date" validate:"required,len=8,numeric"`
	StockCode string `json:"stock_code" param:"stock_code" validate:"required,stockcode"`
}

// Operation API Requests

// ConvertRequest starts a batch conversion. An empty Date converts every date.
type ConvertRequest struct {
	Date  string `json:"date,omitempty" validate:"omitempty,len=8,numeric"`
	Force bool   `json:"force"`
}

// Responses

// ErrorResponse is the legacy error body the viewer frontend expects.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConvertResponse is returned when a conversion is accepted.
type ConvertResponse struct {
	OperationID string    `json:"operation_id"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
}

// OperationStatusResponse reports the current or last conversion.
type OperationStatusResponse struct {
	Running   bool              `json:"running"`
	Operation *domain.Operation `json:"operation,omitempty"`
}

// SummaryResponse lists per-stock stats for one date.
type SummaryResponse struct {
	Date   string                `json:"date"`
	Stocks []domain.StockSummary `json:"stocks"`
}
