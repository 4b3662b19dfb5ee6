// Package http implements the HTTP handlers of the tick viewer server.
// Handlers stay thin: they parse parameters, call a service and render the
// result. Filesystem access and conversion control live in internal/services.
//
// # Routes
//
//	GET  /api/dates                        converted dates, newest first
//	GET  /api/stocks/{date}                stock codes of a date
//	GET  /api/data/{date}/{stock_code}     stored document, byte for byte
//	GET  /api/summary/{date}?format=...    per-stock stats as json, csv or xlsx
//	POST /api/operations/convert           start a background conversion
//	GET  /api/operations/status            current or last conversion
//	POST /api/client-log                   viewer log entries
//	GET  /healthz, /api/version, /metrics
//
// # Error Handling
//
// Errors follow RFC 7807 Problem Details through errors.ErrorHandler, with
// two exceptions kept for the viewer frontend: a missing date and a missing
// document answer 404 with a plain body:
//
//	{"error": "Date not found"}
//	{"error": "Stock data not found"}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces.
package http
