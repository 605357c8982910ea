// Package queue moves domain tasks between producers and a consumer. Three
// transports are available: an in-process channel, RabbitMQ and NATS
// JetStream. All of them retry failed tasks after a delay and give up after
// a bounded number of attempts.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"conferencecentral/config"
	"conferencecentral/internal/domain"
)

// ErrQueueFull is returned by the in-process transport when its buffer is full.
var ErrQueueFull = errors.New("task queue is full")

// Transport is a task queue that can also consume what it carries.
type Transport interface {
	domain.TaskQueue
	domain.TaskConsumer
	Close() error
}

// New builds the transport selected by cfg.Provider.
func New(ctx context.Context, cfg config.QueueConfig, logger *slog.Logger) (Transport, error) {
	opts := Options{
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Buffer:      cfg.Buffer,
	}
	switch cfg.Provider {
	case "", "memory":
		return NewMemory(opts, logger), nil
	case "amqp":
		return NewAMQP(cfg.AMQPURL, opts, logger), nil
	case "nats":
		return NewNATS(ctx, cfg.NATSURL, opts, logger)
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Provider)
	}
}

// Options tune retry and concurrency for every transport.
type Options struct {
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
	Buffer      int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	return o
}
