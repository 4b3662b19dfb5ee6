// Package services implements the business logic behind the viewer API.
//
// Services sit between the HTTP handlers and the file tree the converter
// writes. They validate identifiers, translate filesystem conditions into
// the errors the handlers map to status codes, and never write documents
// themselves.
//
//	DataService        dates, stocks, documents and summaries under the output root
//	ConversionService  starts background conversions and reports their state
//	HealthService      liveness and version information
//
// Constructors take their dependencies explicitly:
//
//	data := services.NewDataService(cfg.Converter.OutputDir, logger)
//	dates, err := data.ListDates(ctx)
package services
