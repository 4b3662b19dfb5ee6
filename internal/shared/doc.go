// Package shared holds helpers used across the tick viewer packages that do
// not belong to any single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler, a slog handler that records log output for assertions
//	- Parquet fixtures: TickRow, WriteTickFile and WriteSampleDay build decoded
//	  quotes files the converter can read
//
// Example usage:
//
//	func TestConvert(t *testing.T) {
//	    root := t.TempDir()
//	    testutil.WriteSampleDay(t, root, "20240102", "BBOB")
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
