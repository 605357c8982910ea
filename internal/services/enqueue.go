package services

import (
	"context"
	"log/slog"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/tasks"
)

// enqueue hands a task to the queue. Failures are logged, never returned.
func enqueue(ctx context.Context, queue domain.TaskQueue, logger *slog.Logger, name string, payload any) {
	t, err := tasks.NewTask(name, payload)
	if err == nil {
		err = queue.Enqueue(ctx, t)
	}
	if err != nil {
		logger.With("err", err).ErrorContext(ctx, "enqueue task failed", "task", name)
	}
}
