// Package dataprocessing turns one stock-day tick file into a viewer document.
//
// # Architecture
//
// The package is organized as a pipeline of small, independently testable steps:
//
// 1. Table: ReadParquet loads the typed columns of a parquet file into memory
// 2. Decoder: Decode normalizes the columns into TradeRecord and DepthRecord rows
// 3. Ladder: DepthLadder answers "latest snapshot strictly before T" queries
// 4. Classifier: Classify labels each trade outer, inner or neutral
// 5. Analytics: BuildChart and ComputeStats fold over trades in time order
// 6. Assembler: Assemble composes the StockDayDocument
//
// # Usage
//
//	processor := dataprocessing.NewProcessor(logger)
//	doc, err := processor.ConvertFile(ctx, "20240115/2330.parquet")
//	if errors.Is(err, dataprocessing.ErrEmptyInput) {
//	    // nothing to write
//	}
//
// # Data Flow
//
//	Parquet File → Table → Decoded rows → Ladder + Classifier → Analytics → Document
//
// # Time Encodings
//
// The Datetime column may be stored as timestamp[ns], timestamp[us], int64
// milliseconds or float64 milliseconds. Every value is normalized to a
// microsecond epoch before any other step sees it.
//
// # Error Handling
//
// Decode failures wrap one of ErrMissingColumn, ErrTypeMismatch or
// ErrUnsupportedTimeEncoding in a *ColumnError naming the column and row.
// ErrEmptyInput is returned when a file has neither trade nor depth rows; it is
// a signal, not a failure.
package dataprocessing
