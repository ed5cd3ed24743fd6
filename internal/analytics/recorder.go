package analytics

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/metrics"
	"ShortLink-Backend/internal/notify"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ClickEvent is one successful resolution captured by the redirect handler.
type ClickEvent struct {
	ShortID     string
	OriginalURL string
	IP          string
	UserAgent   string
	Referer     string
	At          time.Time
}

// ClickStore is the storage surface touched per click.
type ClickStore interface {
	IncrementClicks(ctx context.Context, shortID string) error
	AppendClick(ctx context.Context, entry *domain.ClickLog) error
}

// ClickRecorder fans a click out to the counter, the click log and the notifier.
type ClickRecorder struct {
	store     ClickStore
	notifier  notify.Notifier
	formatter *notify.Formatter
	log       *zap.Logger
}

func NewClickRecorder(store ClickStore, notifier notify.Notifier, formatter *notify.Formatter, log *zap.Logger) *ClickRecorder {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if formatter == nil {
		formatter = notify.NewFormatter("UTC")
	}
	return &ClickRecorder{
		store:     store,
		notifier:  notifier,
		formatter: formatter,
		log:       log,
	}
}

// Record runs the three side effects concurrently and waits for all of them.
// Failures do not affect each other; they are combined, logged once and returned.
func (r *ClickRecorder) Record(ctx context.Context, ev ClickEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	tasks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"increment", func(ctx context.Context) error {
			return r.store.IncrementClicks(ctx, ev.ShortID)
		}},
		{"click_log", func(ctx context.Context) error {
			return r.store.AppendClick(ctx, &domain.ClickLog{
				ShortID:   ev.ShortID,
				At:        ev.At,
				IP:        domain.StringPtr(ev.IP),
				UserAgent: domain.StringPtr(ev.UserAgent),
				Referer:   domain.StringPtr(ev.Referer),
			})
		}},
		{"notify", func(ctx context.Context) error {
			return r.notifier.Notify(ctx, r.formatter.Format(notify.Click{
				ShortID:     ev.ShortID,
				OriginalURL: ev.OriginalURL,
				IP:          ev.IP,
				UserAgent:   ev.UserAgent,
				Referer:     ev.Referer,
				At:          ev.At,
			}))
		}},
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil {
				metrics.RecordTaskFailure(name)
				errs[i] = fmt.Errorf("%s: %w", name, err)
			}
		}(i, task.name, task.run)
	}
	wg.Wait()

	err := multierr.Combine(errs...)
	if err != nil {
		r.log.Warn("click side effects failed",
			zap.String("short_id", ev.ShortID),
			zap.Int("failed", len(multierr.Errors(err))),
			zap.Error(err))
	}
	return err
}

// Submit schedules Record on the tracker. It reports false when the tracker refused the task.
func (r *ClickRecorder) Submit(t *Tracker, ev ClickEvent) bool {
	return t.Go("record_click", func(ctx context.Context) {
		_ = r.Record(ctx, ev)
	})
}
