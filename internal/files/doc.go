// Package files discovers converter inputs and stored documents on disk.
//
// Discovery walks the two directory trees the system works with:
//
//	<input_root>/<YYYYMMDD>/<STOCK>.parquet
//	<output_root>/<YYYYMMDD>/<STOCK>.json
//
// Only directories named with exactly eight digits are treated as dates.
//
// Manager answers the staleness question for one input: a document is up to
// date when it exists and was modified after its input.
//
// Example usage:
//
//	discovery := files.NewDiscovery(logger)
//	dates, err := discovery.DateDirs(inputRoot)
//	inputs, err := discovery.ParquetFiles(config.DateDir(inputRoot, dates[0]))
//
//	manager := files.NewManager(logger)
//	convert, err := manager.NeedsConversion(input.Path, outputPath, force)
package files
