package domain

import (
	"time"
)

// OperationStatus represents the status of a conversion operation
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// FileOutcome is the result of converting a single input file.
type FileOutcome string

const (
	OutcomeConverted FileOutcome = "converted"
	OutcomeFailed    FileOutcome = "failed"
	OutcomeSkipped   FileOutcome = "skipped"
	OutcomeEmpty     FileOutcome = "empty"
)

// ConversionResult holds the totals of one batch run.
type ConversionResult struct {
	Converted int           `json:"converted"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Empty     int           `json:"empty"`
	Dates     []string      `json:"dates"`
	Duration  time.Duration `json:"duration"`
}

// Total returns the number of files the run looked at.
func (r ConversionResult) Total() int {
	return r.Converted + r.Failed + r.Skipped + r.Empty
}

// Operation tracks a batch conversion started through the API.
type Operation struct {
	ID          string            `json:"id"`
	Status      OperationStatus   `json:"status"`
	Date        string            `json:"date,omitempty"`
	Force       bool              `json:"force"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *ConversionResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// FileProgress is emitted once per processed input file.
type FileProgress struct {
	OperationID string      `json:"operation_id,omitempty"`
	Date        string      `json:"date"`
	StockCode   string      `json:"stock_code"`
	Outcome     FileOutcome `json:"outcome"`
	Error       string      `json:"error,omitempty"`
	Done        int         `json:"done"`
	Total       int         `json:"total"`
}
