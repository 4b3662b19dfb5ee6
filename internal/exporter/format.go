package exporter

import (
	"fmt"
	"strconv"
)

// formatPrice keeps every significant digit; quotes can carry three decimals.
func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent formats a percentage with exactly 2 decimal places
func formatPercent(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
