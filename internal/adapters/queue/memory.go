package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"conferencecentral/internal/domain"
)

// Memory is an in-process transport backed by a buffered channel. Tasks are
// lost when the process exits.
type Memory struct {
	opts   Options
	logger *slog.Logger
	tasks  chan domain.Task
}

func NewMemory(opts Options, logger *slog.Logger) *Memory {
	opts = opts.withDefaults()
	return &Memory{
		opts:   opts,
		logger: logger,
		tasks:  make(chan domain.Task, opts.Buffer),
	}
}

func (m *Memory) Enqueue(ctx context.Context, t domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run starts the workers and blocks until ctx is done.
func (m *Memory) Run(ctx context.Context, h domain.TaskHandler) error {
	var wg sync.WaitGroup
	for range m.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-m.tasks:
					m.process(ctx, h, t)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

func (m *Memory) process(ctx context.Context, h domain.TaskHandler, t domain.Task) {
	t.Attempt++
	err := h.Handle(ctx, t)
	if err == nil {
		return
	}
	log := m.logger.With("err", err, "task", t.Name, "id", t.ID, "attempt", t.Attempt)
	if t.Attempt >= m.opts.MaxAttempts {
		log.ErrorContext(ctx, "task failed, giving up")
		return
	}
	log.WarnContext(ctx, "task failed, will retry", "delay", m.opts.RetryDelay)
	time.AfterFunc(m.opts.RetryDelay, func() {
		if err := m.Enqueue(ctx, t); err != nil {
			log.ErrorContext(ctx, "requeue task", "requeue_err", err)
		}
	})
}

func (m *Memory) Close() error { return nil }
