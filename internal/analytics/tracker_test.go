package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTracker_ShutdownWaitsForTasks(t *testing.T) {
	tr := NewTracker(time.Second, zap.NewNop())

	var done atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, tr.Go("sleep", func(ctx context.Context) {
			time.Sleep(20 * time.Millisecond)
			done.Add(1)
		}))
	}

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Equal(t, int32(10), done.Load())
}

func TestTracker_RejectsAfterShutdown(t *testing.T) {
	tr := NewTracker(time.Second, zap.NewNop())
	require.NoError(t, tr.Shutdown(context.Background()))

	ran := false
	assert.False(t, tr.Go("late", func(context.Context) { ran = true }))
	assert.False(t, ran)
	assert.ErrorIs(t, tr.Shutdown(context.Background()), ErrTrackerClosed)
}

func TestTracker_DeadlineCancelsTasks(t *testing.T) {
	tr := NewTracker(0, zap.NewNop())

	cancelled := make(chan struct{})
	tr.Go("blocked", func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tr.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	select {
	case <-cancelled:
	default:
		t.Fatal("task context was not cancelled")
	}
}

func TestTracker_TaskTimeout(t *testing.T) {
	tr := NewTracker(20*time.Millisecond, zap.NewNop())

	var deadlineHit atomic.Bool
	tr.Go("slow", func(ctx context.Context) {
		select {
		case <-ctx.Done():
			deadlineHit.Store(true)
		case <-time.After(time.Second):
		}
	})
	tr.Wait()
	assert.True(t, deadlineHit.Load())
}

func TestTracker_TaskOutlivesCaller(t *testing.T) {
	tr := NewTracker(time.Second, zap.NewNop())

	reqCtx, cancelReq := context.WithCancel(context.Background())
	var sawCancel atomic.Bool
	started := make(chan struct{})
	tr.Go("detached", func(ctx context.Context) {
		close(started)
		<-reqCtx.Done()
		sawCancel.Store(ctx.Err() != nil)
	})
	<-started
	cancelReq()
	tr.Wait()

	assert.False(t, sawCancel.Load(), "task context must not follow the request context")
}

func TestTracker_RecoversPanics(t *testing.T) {
	tr := NewTracker(time.Second, zap.NewNop())
	tr.Go("boom", func(context.Context) { panic("boom") })
	assert.NoError(t, tr.Shutdown(context.Background()))
}
