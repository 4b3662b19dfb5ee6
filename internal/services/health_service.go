package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"tickviewer/internal/config"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/websocket"
	"tickviewer/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HubStatsProvider reports WebSocket hub counters.
type HubStatsProvider interface {
	Stats() websocket.HubStats
}

// HealthService provides health check functionality
type HealthService struct {
	outputDir string
	hub       HubStatsProvider
	tracker   OperationTracker
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    float64                  `json:"uptime_seconds"`
	Services  map[string]ServiceHealth `json:"services"`
	Runtime   map[string]interface{}   `json:"runtime"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionResponse is the body of the version endpoint.
type VersionResponse struct {
	contracts.VersionInfo
	StartTime time.Time `json:"start_time"`
	Uptime    float64   `json:"uptime_seconds"`
}

// NewHealthService creates a health service. hub and tracker may be nil.
func NewHealthService(outputDir string, hub HubStatsProvider, tracker OperationTracker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HealthService{
		outputDir: outputDir,
		hub:       hub,
		tracker:   tracker,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status. A missing output root only
// degrades the status; the server still answers.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(hs.startTime).Seconds(),
		Services: map[string]ServiceHealth{
			"data":      hs.checkData(),
			"websocket": hs.checkWebSocket(),
			"converter": hs.checkConverter(),
		},
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}

	for _, s := range status.Services {
		if s.Status != StatusReady {
			status.Status = StatusDegraded
			break
		}
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed", slog.String("status", status.Status))
	return status
}

// Version returns version information
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo: contracts.GetVersionInfo(),
		StartTime:   hs.startTime.UTC(),
		Uptime:      time.Since(hs.startTime).Seconds(),
	}
}

func (hs *HealthService) checkData() ServiceHealth {
	if !config.DirExists(hs.outputDir) {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Output directory not found: %s", hs.outputDir),
		}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "WebSocket hub not initialized"}
	}
	stats := hs.hub.Stats()
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d clients connected", stats.ActiveClients),
	}
}

func (hs *HealthService) checkConverter() ServiceHealth {
	if hs.tracker == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "Converter not initialized"}
	}
	if running, op := hs.tracker.Status(); running {
		return ServiceHealth{Status: StatusReady, Message: "conversion " + op.ID + " running"}
	}
	return ServiceHealth{Status: StatusReady, Message: "idle"}
}
