// Package config provides configuration loading for the tick converter and
// the viewer server.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default() values
//	2. A YAML file: $TICKVIEWER_CONFIG, config.yaml or configs/config.yaml
//	3. Environment variables (a .env file is loaded first when present)
//
// # Environment Variables
//
// Variables follow the pattern TICKVIEWER_<SECTION>_<FIELD>:
//
//	TICKVIEWER_CONVERTER_INPUT_DIR=data/decoded_quotes
//	TICKVIEWER_CONVERTER_WORKERS=4
//	TICKVIEWER_SERVER_PORT=5000
//	TICKVIEWER_LOGGING_LEVEL=debug
//	TICKVIEWER_TELEMETRY_ENABLE_TRACING=true
//
// Unset variables leave the lower layers untouched.
//
// # Paths
//
// Directories are kept as configured and resolved against the working
// directory with Config.ResolvePaths. DocumentPath, InputFilePath and
// SummaryPath build the per-date file locations shared by the converter and
// the server.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests should start from Default() and mutate the fields they need.
package config
