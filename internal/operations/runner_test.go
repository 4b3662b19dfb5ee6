package operations

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"tickviewer/internal/config"
	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/shared/testutil"
	"tickviewer/pkg/contracts/domain"
)

type progressLog struct {
	mu     sync.Mutex
	events []domain.FileProgress
}

func (p *progressLog) Report(_ context.Context, fp domain.FileProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fp)
}

func (p *progressLog) all() []domain.FileProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.FileProgress(nil), p.events...)
}

// ageInputs pushes every input mtime into the past so freshly written
// outputs are strictly newer regardless of filesystem timestamp granularity.
func ageInputs(t *testing.T, paths ...string) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	for _, p := range paths {
		require.NoError(t, os.Chtimes(p, past, past))
	}
}

type fixture struct {
	in, out string
	inputs  []string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	in := filepath.Join(t.TempDir(), "in")
	out := filepath.Join(t.TempDir(), "out")

	inputs := []string{
		testutil.WriteSampleDay(t, in, "20240102", "ACME"),
		testutil.WriteSampleDay(t, in, "20240103", "BBOB"),
		testutil.WriteEmptyDay(t, in, "20240103", "EMPTY"),
	}
	bad := filepath.Join(in, "20240103", "BAD.parquet")
	require.NoError(t, os.WriteFile(bad, []byte("not a parquet file"), 0644))
	inputs = append(inputs, bad)

	// Ignored: not a date directory, wrong extension.
	require.NoError(t, os.MkdirAll(filepath.Join(in, "misc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "20240102", "notes.txt"), []byte("x"), 0644))

	ageInputs(t, inputs...)
	return fixture{in: in, out: out, inputs: inputs}
}

func newTestRunner(t *testing.T) *BatchRunner {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewBatchRunner(logger)
}

func TestBatchRunner_Run(t *testing.T) {
	f := newFixture(t)
	runner := newTestRunner(t)
	progress := &progressLog{}

	result, err := runner.Run(context.Background(), Options{InputDir: f.in, OutputDir: f.out, Workers: 2}, progress)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Empty)
	assert.Equal(t, 4, result.Total())
	assert.Equal(t, []string{"20240102", "20240103"}, result.Dates)
	assert.Positive(t, result.Duration)

	assert.FileExists(t, config.DocumentPath(f.out, "20240102", "ACME"))
	assert.FileExists(t, config.DocumentPath(f.out, "20240103", "BBOB"))
	assert.NoFileExists(t, config.DocumentPath(f.out, "20240103", "EMPTY"))
	assert.NoFileExists(t, config.DocumentPath(f.out, "20240103", "BAD"))

	events := progress.all()
	require.Len(t, events, 4)
	done := make([]int, 0, len(events))
	outcomes := map[string]domain.FileOutcome{}
	for _, e := range events {
		assert.Equal(t, 4, e.Total)
		done = append(done, e.Done)
		outcomes[e.StockCode] = e.Outcome
		if e.Outcome == domain.OutcomeFailed {
			assert.NotEmpty(t, e.Error)
		}
	}
	sort.Ints(done)
	assert.Equal(t, []int{1, 2, 3, 4}, done)
	assert.Equal(t, map[string]domain.FileOutcome{
		"ACME":  domain.OutcomeConverted,
		"BBOB":  domain.OutcomeConverted,
		"EMPTY": domain.OutcomeEmpty,
		"BAD":   domain.OutcomeFailed,
	}, outcomes)
}

func TestBatchRunner_SkipsUpToDateOutputs(t *testing.T) {
	f := newFixture(t)
	runner := newTestRunner(t)
	opts := Options{InputDir: f.in, OutputDir: f.out, Workers: 1}

	_, err := runner.Run(context.Background(), opts, nil)
	require.NoError(t, err)

	second, err := runner.Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Converted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 1, second.Empty, "empty inputs leave no output and are looked at again")
	assert.Equal(t, 1, second.Failed)

	// An input touched after its output is stale again.
	now := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f.inputs[0], now, now))
	third, err := runner.Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Converted)
	assert.Equal(t, 1, third.Skipped)

	opts.Force = true
	forced, err := runner.Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, forced.Converted)
	assert.Equal(t, 0, forced.Skipped)
}

func TestBatchRunner_DateFilter(t *testing.T) {
	f := newFixture(t)
	runner := newTestRunner(t)

	tests := []struct {
		name      string
		date      string
		converted int
		dates     []string
	}{
		{name: "single date", date: "20240102", converted: 1, dates: []string{"20240102"}},
		{name: "unknown date", date: "20990101", converted: 0, dates: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := runner.Run(context.Background(), Options{
				InputDir: f.in, OutputDir: t.TempDir(), Date: tt.date, Workers: 2,
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.converted, result.Converted)
			assert.Equal(t, tt.dates, result.Dates)
		})
	}

	_, err := runner.Run(context.Background(), Options{InputDir: f.in, OutputDir: f.out, Date: "2024-01-02"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestBatchRunner_MissingInputRoot(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	runner := NewBatchRunner(logger)

	result, err := runner.Run(context.Background(), Options{
		InputDir:  filepath.Join(t.TempDir(), "absent"),
		OutputDir: t.TempDir(),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Empty(t, result.Dates)
	assert.True(t, logs.ContainsMessage("Nothing to convert"))
}

func TestBatchRunner_WriteSummary(t *testing.T) {
	f := newFixture(t)
	runner := newTestRunner(t)

	_, err := runner.Run(context.Background(), Options{
		InputDir: f.in, OutputDir: f.out, Workers: 2, WriteSummary: true,
	}, nil)
	require.NoError(t, err)

	for _, date := range []string{"20240102", "20240103"} {
		assert.FileExists(t, config.SummaryPath(f.out, date, "csv"))
		assert.FileExists(t, config.SummaryPath(f.out, date, "xlsx"))
	}

	data, err := os.ReadFile(config.SummaryPath(f.out, "20240103", "csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "BBOB,20240103,11,10,11,10,10.5,10,2,1,10.00")
}

func TestBatchRunner_Cancelled(t *testing.T) {
	f := newFixture(t)
	runner := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, Options{InputDir: f.in, OutputDir: f.out}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchRunner_RecordsMetrics(t *testing.T) {
	f := newFixture(t)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateConversionMetrics(provider.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	runner := NewBatchRunner(logger, WithMetrics(metrics))
	_, err = runner.Run(context.Background(), Options{InputDir: f.in, OutputDir: f.out, Workers: 2}, nil)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				key := m.Name
				if outcome, ok := dp.Attributes.Value("outcome"); ok {
					key += ":" + outcome.AsString()
				}
				counts[key] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), counts["converter_files_total:converted"])
	assert.Equal(t, int64(1), counts["converter_files_total:failed"])
	assert.Equal(t, int64(1), counts["converter_files_total:empty"])
	assert.Equal(t, int64(4), counts["converter_trades_total"])
	assert.Equal(t, int64(2), counts["converter_depth_snapshots_total"])
	assert.Equal(t, int64(0), counts["converter_active_batches"])
}

func TestProgressTracker(t *testing.T) {
	p := NewProgressTracker(4)
	assert.Equal(t, "calculating...", p.GetETA())

	assert.Equal(t, 1, p.Increment())
	assert.Equal(t, 2, p.Increment())

	done, total, pct := p.GetProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 4, total)
	assert.InDelta(t, 50.0, pct, 1e-9)
	assert.Contains(t, p.GetETA(), "seconds")

	p.Increment()
	p.Increment()
	assert.Equal(t, "0 seconds", p.GetETA())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30 seconds", formatDuration(30*time.Second))
	assert.Equal(t, "1.5 minutes", formatDuration(90*time.Second))
	assert.Equal(t, "2.0 hours", formatDuration(2*time.Hour))
}
