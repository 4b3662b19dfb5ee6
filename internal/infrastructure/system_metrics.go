package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime gauges
type SystemMetrics struct {
	goRoutines    metric.Int64Gauge
	heapInUse     metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	gcCount       metric.Int64Gauge
	gcPause       metric.Float64Histogram
	processUptime metric.Float64Gauge

	lastNumGC uint32
}

// SystemStats is one runtime sample
type SystemStats struct {
	GoRoutines    int64
	HeapInUse     int64
	MemorySystem  int64
	GCCount       uint32
	LastGCPause   time.Duration
	ProcessUptime time.Duration
	Timestamp     time.Time
}

// NewSystemMetrics creates the runtime instruments on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapInUse, err := meter.Int64Gauge(
		"system_heap_inuse_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:    goRoutines,
		heapInUse:     heapInUse,
		memorySystem:  memorySystem,
		gcCount:       gcCount,
		gcPause:       gcPause,
		processUptime: processUptime,
	}, nil
}

// Collect samples the runtime and records it. A GC pause is recorded once
// per new cycle.
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapInUse:     int64(memStats.HeapInuse),
		MemorySystem:  int64(memStats.Sys),
		GCCount:       memStats.NumGC,
		LastGCPause:   time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now(),
	}

	sm.goRoutines.Record(ctx, stats.GoRoutines)
	sm.heapInUse.Record(ctx, stats.HeapInUse)
	sm.memorySystem.Record(ctx, stats.MemorySystem)
	sm.gcCount.Record(ctx, int64(stats.GCCount))
	sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())

	if stats.GCCount != sm.lastNumGC && stats.LastGCPause > 0 {
		sm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
		sm.lastNumGC = stats.GCCount
	}

	return stats
}

// SystemMetricsCollector samples the runtime on an interval
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	startTime time.Time
	interval  time.Duration

	mu       sync.Mutex
	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSystemMetricsCollector creates a collector sampling every interval
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &SystemMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start collects until Stop is called or ctx ends. It blocks; run it in a
// goroutine.
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	smc.started.Store(true)
	defer close(smc.done)

	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	smc.GetCurrentStats(ctx)

	for {
		select {
		case <-ticker.C:
			smc.GetCurrentStats(ctx)
		case <-smc.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends collection. When Start is running it waits for it to return.
func (smc *SystemMetricsCollector) Stop() {
	smc.stopOnce.Do(func() { close(smc.stopCh) })
	if smc.started.Load() {
		<-smc.done
	}
}

// GetCurrentStats samples and records the runtime now
func (smc *SystemMetricsCollector) GetCurrentStats(ctx context.Context) *SystemStats {
	smc.mu.Lock()
	defer smc.mu.Unlock()
	return smc.metrics.Collect(ctx, smc.startTime)
}
