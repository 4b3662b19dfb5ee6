package dataprocessing

import "time"

const (
	// TimestampLayout renders microsecond timestamps in documents.
	TimestampLayout = "2006-01-02 15:04:05.000000"
	// DateLayout is the 8-digit trading date.
	DateLayout = "20060102"
	// PlaceholderDate is used when no row carries a resolvable timestamp.
	PlaceholderDate = "19700101"
)

// FormatTimestamp renders a microsecond epoch in UTC.
func FormatTimestamp(us int64) string {
	return time.UnixMicro(us).UTC().Format(TimestampLayout)
}

// FormatDate renders the UTC calendar date of a microsecond epoch.
func FormatDate(us int64) string {
	return time.UnixMicro(us).UTC().Format(DateLayout)
}
