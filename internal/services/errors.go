package services

import "errors"

var (
	// ErrDateNotFound is returned when the output root has no such date.
	ErrDateNotFound = errors.New("date not found")

	// ErrStockDataNotFound is returned when a date has no document for a stock.
	ErrStockDataNotFound = errors.New("stock data not found")
)
