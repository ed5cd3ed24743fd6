package analytics

import (
	"ShortLink-Backend/internal/metrics"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTrackerClosed is returned by Shutdown when it is called twice.
var ErrTrackerClosed = errors.New("tracker already shut down")

// Tracker runs fire-and-forget work outside the request lifecycle and lets
// shutdown wait for it. Tasks get their own context, detached from the
// request, bounded by the task timeout and cancelled when Shutdown gives up.
type Tracker struct {
	log         *zap.Logger
	taskTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTracker creates a tracker. taskTimeout <= 0 means tasks are bounded only by shutdown.
func NewTracker(taskTimeout time.Duration, log *zap.Logger) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		log:         log,
		taskTimeout: taskTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Go starts fn in a goroutine. It returns false, without running fn, once
// shutdown has begun.
func (t *Tracker) Go(name string, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		metrics.BackgroundTasksDropped.Inc()
		t.log.Warn("background task dropped: shutting down", zap.String("task", name))
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	metrics.BackgroundTasksInFlight.Inc()
	go func() {
		defer t.wg.Done()
		defer metrics.BackgroundTasksInFlight.Dec()
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("background task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()

		ctx := t.ctx
		if t.taskTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.taskTimeout)
			defer cancel()
		}
		fn(ctx)
	}()
	return true
}

// Wait blocks until every task started so far has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, running tasks are cancelled and ctx.Err() is returned.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTrackerClosed
	}
	t.closed = true
	t.mu.Unlock()

	t.log.Info("waiting for background tasks")

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		t.log.Info("background tasks finished")
		return nil
	case <-ctx.Done():
		t.cancel()
		<-done
		t.log.Warn("background tasks cancelled at shutdown deadline")
		return ctx.Err()
	}
}
