package operations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	"tickviewer/internal/shared/testutil"
	"tickviewer/pkg/contracts/domain"
	"tickviewer/pkg/contracts/events"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, opts Options, reporter ProgressReporter) (*domain.ConversionResult, error) {
	args := m.Called(ctx, opts, reporter)
	result, _ := args.Get(0).(*domain.ConversionResult)
	return result, args.Error(1)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []events.WebSocketMessage
}

func (b *recordingBroadcaster) Broadcast(msg events.WebSocketMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) types() []events.MessageType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]events.MessageType, len(b.messages))
	for i, m := range b.messages {
		types[i] = m.Type
	}
	return types
}

func (b *recordingBroadcaster) last() events.WebSocketMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[len(b.messages)-1]
}

var baseOptions = Options{InputDir: "in", OutputDir: "out", Workers: 3, WriteSummary: true}

func TestTracker_RunsToCompletion(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	runner := &mockRunner{}
	hub := &recordingBroadcaster{}
	tracker := NewTracker(runner, baseOptions, hub, logger)

	result := &domain.ConversionResult{Converted: 2, Dates: []string{"20240102"}}
	release := make(chan struct{})
	runner.On("Run", mock.Anything, Options{
		InputDir: "in", OutputDir: "out", Workers: 3, WriteSummary: true,
		Date: "20240102", Force: true,
	}, mock.Anything).
		Run(func(args mock.Arguments) {
			reporter := args.Get(2).(ProgressReporter)
			reporter.Report(args.Get(0).(context.Context), domain.FileProgress{
				Date: "20240102", StockCode: "ACME", Outcome: domain.OutcomeConverted, Done: 1, Total: 1,
			})
			<-release
		}).
		Return(result, nil).Once()

	ctx := infrastructure.WithTraceID(context.Background(), "req-1")
	op, err := tracker.Start(ctx, "20240102", true)
	require.NoError(t, err)
	assert.NotEmpty(t, op.ID)
	assert.Equal(t, domain.OperationStatusRunning, op.Status)

	running, current := tracker.Status()
	assert.True(t, running)
	assert.Equal(t, op.ID, current.ID)

	_, err = tracker.Start(ctx, "", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))

	close(release)
	tracker.Wait()

	running, current = tracker.Status()
	assert.False(t, running)
	assert.Equal(t, domain.OperationStatusCompleted, current.Status)
	require.NotNil(t, current.CompletedAt)
	assert.Equal(t, 2, current.Result.Converted)

	assert.Equal(t, []events.MessageType{
		events.MessageTypeOperationStarted,
		events.MessageTypeFileProgress,
		events.MessageTypeOperationCompleted,
	}, hub.types())
	assert.Equal(t, "req-1", hub.last().TraceID)

	hub.mu.Lock()
	progress := hub.messages[1].Data.(domain.FileProgress)
	hub.mu.Unlock()
	assert.Equal(t, op.ID, progress.OperationID)

	runner.AssertExpectations(t)
}

func TestTracker_RecordsFailure(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	runner := &mockRunner{}
	hub := &recordingBroadcaster{}
	tracker := NewTracker(runner, baseOptions, hub, logger)

	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("output directory unusable")).Once()

	_, err := tracker.Start(context.Background(), "", false)
	require.NoError(t, err)
	tracker.Wait()

	running, current := tracker.Status()
	assert.False(t, running)
	assert.Equal(t, domain.OperationStatusFailed, current.Status)
	assert.Equal(t, "output directory unusable", current.Error)
	assert.Nil(t, current.Result)
	assert.Equal(t, events.MessageTypeOperationFailed, hub.last().Type)
	assert.NotEmpty(t, hub.last().TraceID, "runs without a request trace get their own")
	assert.True(t, logs.ContainsMessage("Conversion failed"))

	// A new run may start once the previous one ended.
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ConversionResult{}, nil).Once()
	_, err = tracker.Start(context.Background(), "", false)
	require.NoError(t, err)
	tracker.Wait()
	runner.AssertExpectations(t)
}

func TestTracker_StatusBeforeFirstRun(t *testing.T) {
	tracker := NewTracker(&mockRunner{}, baseOptions, nil, nil)
	running, op := tracker.Status()
	assert.False(t, running)
	assert.Nil(t, op)
}

func TestTracker_ShutdownCancelsRun(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	runner := &mockRunner{}
	tracker := NewTracker(runner, baseOptions, nil, logger)

	started := make(chan struct{})
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()

	_, err := tracker.Start(context.Background(), "", false)
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tracker.Shutdown(ctx))

	_, current := tracker.Status()
	assert.Equal(t, domain.OperationStatusFailed, current.Status)
	assert.Equal(t, context.Canceled.Error(), current.Error)
}
