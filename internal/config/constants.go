package config

import "time"

// Application constants
const (
	AppName   = "TickViewer"
	EnvPrefix = "TICKVIEWER"

	// ConfigFileEnv names the variable that points at an explicit YAML file.
	ConfigFileEnv = EnvPrefix + "_CONFIG"

	// File Paths (relative to the working directory)
	DefaultInputDir  = "data/decoded_quotes"
	DefaultOutputDir = "frontend/static/api"
	DefaultStaticDir = "frontend/static"
	DefaultLogFile   = "logs/tickviewer.log"

	// Converter
	MaxDefaultWorkers = 4
	InputExtension    = ".parquet"
	DocumentExtension = ".json"
	SummaryBaseName   = "summary"

	// Server
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 5000
	DefaultCacheMaxAge  = 3600
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	DefaultShutdown     = 30 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
)
