// Package operations drives batch conversions of captured stock-days.
//
// Core Components:
//
// BatchRunner: scans <input>/<YYYYMMDD>/*.parquet in ascending date order,
// converts each file that is stale with a bounded pool of workers and writes
// <output>/<YYYYMMDD>/<STOCK>.json. A failed file is logged and counted; it
// never aborts the batch. With WriteSummary set it also writes the per-date
// summary.csv and summary.xlsx.
//
// Tracker: runs at most one BatchRunner in the background for the HTTP API,
// keeps the state of the current or last operation and publishes lifecycle
// events to a Broadcaster.
//
// ProgressReporter: receives one FileProgress per processed file. The
// converter CLI logs them; the server forwards them to WebSocket clients.
//
// Example usage:
//
//	runner := operations.NewBatchRunner(logger, operations.WithMetrics(metrics))
//	result, err := runner.Run(ctx, operations.OptionsFromConfig(cfg.Converter), nil)
//	if err != nil {
//	    return err
//	}
//	logger.Info("done", slog.Int("converted", result.Converted))
package operations
