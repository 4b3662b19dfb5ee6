package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts processed files of a run.
type ProgressTracker struct {
	mu        sync.Mutex
	total     int
	done      int
	startTime time.Time
}

// NewProgressTracker creates a tracker expecting total files.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment marks one more file as processed and returns the new count.
func (p *ProgressTracker) Increment() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	return p.done
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (done, total int, percentage float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100
	}
	return p.done, p.total, percentage
}

// GetETA estimates the time remaining from the average rate so far.
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == 0 || p.total == 0 {
		return "calculating..."
	}

	elapsed := time.Since(p.startTime)
	rate := float64(p.done) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}

	return formatDuration(time.Duration(float64(p.total-p.done) / rate * float64(time.Second)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}
