// Package app wires the tick viewer server together: configuration, logging,
// OpenTelemetry, the WebSocket hub, the conversion tracker, the services and
// the chi router.
//
// # Initialization Flow
//
//	1. Resolve configured paths and create the output directory
//	2. Initialize OpenTelemetry (Prometheus metrics, optional tracing)
//	3. Create the hub, batch runner, tracker and services
//	4. Build the router and the http.Server
//
// # Usage
//
//	cfg, _ := config.Load()
//	logger, _ := infrastructure.InitializeLogger(cfg.Logging)
//	app, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM. Stop then drains HTTP requests,
// cancels a running conversion, closes WebSocket clients and flushes
// telemetry. Errors are returned to the caller; the package never exits the
// process.
package app
