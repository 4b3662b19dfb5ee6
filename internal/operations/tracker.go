package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	"tickviewer/pkg/contracts/domain"
	"tickviewer/pkg/contracts/events"
)

// Runner executes one batch conversion. *BatchRunner implements it.
type Runner interface {
	Run(ctx context.Context, opts Options, reporter ProgressReporter) (*domain.ConversionResult, error)
}

// Tracker runs conversions in the background, one at a time, and remembers
// the current or last operation.
type Tracker struct {
	runner      Runner
	base        Options
	broadcaster Broadcaster
	logger      *slog.Logger

	mu      sync.Mutex
	current *domain.Operation
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTracker creates a tracker. base supplies the directories, workers and
// summary setting of every run; broadcaster may be nil.
func NewTracker(runner Runner, base Options, broadcaster Broadcaster, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Tracker{
		runner:      runner,
		base:        base,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "operation_tracker")),
	}
}

// Start launches a conversion restricted to date (all dates when empty).
// It returns a conflict AppError while another conversion is running.
// The run outlives ctx; only its trace ID is carried over.
func (t *Tracker) Start(ctx context.Context, date string, force bool) (domain.Operation, error) {
	t.mu.Lock()
	if t.running {
		id := t.current.ID
		t.mu.Unlock()
		return domain.Operation{}, apperrors.NewConflictError("a conversion is already running").
			WithContext("operation_id", id)
	}

	op := &domain.Operation{
		ID:        uuid.NewString(),
		Status:    domain.OperationStatusRunning,
		Date:      date,
		Force:     force,
		StartedAt: time.Now().UTC(),
	}

	runCtx := infrastructure.EnsureTraceID(
		infrastructure.WithTraceID(context.Background(), infrastructure.GetTraceID(ctx)))
	runCtx, cancel := context.WithCancel(runCtx)

	t.current = op
	t.running = true
	t.cancel = cancel
	snapshot := *op
	t.wg.Add(1)
	t.mu.Unlock()

	opts := t.base
	opts.Date = date
	opts.Force = force

	t.logger.InfoContext(runCtx, "Conversion started",
		slog.String("operation_id", op.ID),
		slog.String("date", date),
		slog.Bool("force", force))
	t.publish(runCtx, events.MessageTypeOperationStarted, snapshot)

	go t.execute(runCtx, cancel, op, opts)
	return snapshot, nil
}

func (t *Tracker) execute(ctx context.Context, cancel context.CancelFunc, op *domain.Operation, opts Options) {
	defer t.wg.Done()
	defer cancel()

	reporter := ReporterFunc(func(ctx context.Context, p domain.FileProgress) {
		p.OperationID = op.ID
		t.publish(ctx, events.MessageTypeFileProgress, p)
	})

	result, err := t.runner.Run(ctx, opts, reporter)

	t.mu.Lock()
	now := time.Now().UTC()
	op.CompletedAt = &now
	if err != nil {
		op.Status = domain.OperationStatusFailed
		op.Error = err.Error()
	} else {
		op.Status = domain.OperationStatusCompleted
		op.Result = result
	}
	t.running = false
	t.cancel = nil
	snapshot := *op
	t.mu.Unlock()

	if err != nil {
		t.logger.ErrorContext(ctx, "Conversion failed",
			slog.String("operation_id", op.ID),
			slog.String("error", err.Error()))
		t.publish(ctx, events.MessageTypeOperationFailed, snapshot)
		return
	}

	t.logger.InfoContext(ctx, "Conversion finished",
		slog.String("operation_id", op.ID),
		slog.Int("converted", result.Converted),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("empty", result.Empty))
	t.publish(ctx, events.MessageTypeOperationCompleted, snapshot)
}

func (t *Tracker) publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	if t.broadcaster == nil {
		return
	}
	msg := events.NewMessage(msgType, data)
	msg.TraceID = infrastructure.GetTraceID(ctx)
	t.broadcaster.Broadcast(msg)
}

// Status reports whether a conversion is running and returns a copy of the
// current or last operation, nil when none has run.
func (t *Tracker) Status() (bool, *domain.Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return false, nil
	}
	op := *t.current
	return t.running, &op
}

// Wait blocks until the running conversion, if any, has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Shutdown cancels a running conversion and waits for it, up to ctx.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
