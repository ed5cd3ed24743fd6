package repository

import (
	"ShortLink-Backend/internal/metrics"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor enforces the click log retention window. It plays the role of a
// TTL index for backends that have none: every interval it deletes entries
// older than ttl.
type Janitor struct {
	purger   ClickLogPurger
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewJanitor creates a retention janitor. It does nothing until Start is called.
func NewJanitor(purger ClickLogPurger, ttl, interval time.Duration, log *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		purger:   purger,
		ttl:      ttl,
		interval: interval,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval in a goroutine.
func (j *Janitor) Start() {
	j.log.Info("starting click log retention janitor",
		zap.Duration("ttl", j.ttl),
		zap.Duration("interval", j.interval))

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.Sweep(context.Background())
		for {
			select {
			case <-ticker.C:
				j.Sweep(context.Background())
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the janitor and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	j.once.Do(func() {
		close(j.stop)
		<-j.done
		j.log.Info("click log retention janitor stopped")
	})
}

// Sweep deletes every click log older than the retention window and returns the count removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	if j.ttl <= 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	cutoff := j.now().Add(-j.ttl)
	removed, err := j.purger.PurgeClickLogs(ctx, cutoff)
	if err != nil {
		j.log.Error("failed to purge expired click logs", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0
	}
	if removed > 0 {
		metrics.ClickLogsPurged.Add(float64(removed))
		j.log.Info("purged expired click logs", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed
}
