package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelDisabledUsesNoop(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	metrics, err := CreateConversionMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordFile(context.Background(), "converted", time.Millisecond, 3, 2)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OTelConfig)
		wantErr bool
	}{
		{
			name:   "stdout tracing",
			mutate: func(c *OTelConfig) { c.EnableTracing = true; c.TraceExporter = "stdout" },
		},
		{
			name:    "unknown trace exporter",
			mutate:  func(c *OTelConfig) { c.EnableTracing = true; c.TraceExporter = "jaeger" },
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			mutate:  func(c *OTelConfig) { c.MetricExporter = "statsd" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultOTelConfig()
			tt.mutate(cfg)

			providers, err := InitializeOTel(cfg, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Empty(t, TraceIDFromContext(context.Background()))

	RecordError(ctx, assert.AnError)
}

func TestConversionMetricsExposedOnPrometheus(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateConversionMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFile(ctx, "converted", 20*time.Millisecond, 10, 4)
	metrics.RecordBatch(ctx, 1)
	metrics.RecordHTTPRequest(ctx, "/api/dates", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "converter_files_total")
	assert.Contains(t, body, "converter_trades_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestConversionMetricsNilSafe(t *testing.T) {
	var metrics *ConversionMetrics
	assert.NotPanics(t, func() {
		metrics.RecordFile(context.Background(), "failed", time.Second, 0, 0)
		metrics.RecordBatch(context.Background(), -1)
		metrics.RecordHTTPRequest(context.Background(), "/", http.MethodGet, 200, time.Second)
	})
}
