package tasks

import (
	"context"
	"log/slog"
	"time"

	"conferencecentral/internal/domain"
)

// Schedule enqueues a payload-less task named name immediately and then
// every interval until ctx is done. A non-positive interval enqueues once.
func Schedule(ctx context.Context, logger *slog.Logger, queue domain.TaskQueue, name string, interval time.Duration) {
	if interval <= 0 {
		logger.WarnContext(ctx, "non-positive schedule interval, enqueueing once", "task", name, "interval", interval)
		enqueueScheduled(ctx, logger, queue, name)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		enqueueScheduled(ctx, logger, queue, name)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func enqueueScheduled(ctx context.Context, logger *slog.Logger, queue domain.TaskQueue, name string) {
	t, err := NewTask(name, struct{}{})
	if err == nil {
		err = queue.Enqueue(ctx, t)
	}
	if err != nil && ctx.Err() == nil {
		logger.With("err", err).ErrorContext(ctx, "schedule task", "task", name)
	}
}
