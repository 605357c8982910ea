package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"conferencecentral/internal/domain"
)

// HandlerFunc executes one kind of task.
type HandlerFunc func(ctx context.Context, t domain.Task) error

// Dispatcher routes tasks by name. It implements domain.TaskHandler.
type Dispatcher struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

func (d *Dispatcher) Register(name string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Handle runs the handler registered for t.Name. Permanent failures are
// logged and acknowledged so transports do not redeliver them; other
// errors are returned for retry.
func (d *Dispatcher) Handle(ctx context.Context, t domain.Task) error {
	d.mu.RLock()
	h, ok := d.handlers[t.Name]
	d.mu.RUnlock()

	var err error
	if ok {
		err = h(ctx, t)
	} else {
		err = fmt.Errorf("%w: %q", ErrUnknownTask, t.Name)
	}
	if err == nil {
		d.logger.DebugContext(ctx, "task done", "task", t.Name, "id", t.ID, "attempt", t.Attempt)
		return nil
	}
	if IsPermanent(err) {
		d.logger.With("err", err).WarnContext(ctx, "dropping task", "task", t.Name, "id", t.ID, "attempt", t.Attempt)
		return nil
	}
	return err
}
