package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"conferencecentral/internal/domain"
)

const (
	amqpQueueName     = "conference.tasks"
	amqpAttemptHeader = "x-attempt"
	maxBackoff        = 30 * time.Second
)

// AMQP carries tasks over a durable RabbitMQ queue. The task name travels in
// the message Type and the number of completed attempts in a header.
type AMQP struct {
	url    string
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	pub  *amqp.Channel
}

func NewAMQP(url string, opts Options, logger *slog.Logger) *AMQP {
	return &AMQP{url: url, opts: opts.withDefaults(), logger: logger}
}

// publisher returns the shared publishing channel, dialing on first use or
// after the broker dropped the connection. Callers hold q.mu.
func (q *AMQP) publisher() (*amqp.Channel, error) {
	if q.pub != nil && !q.pub.IsClosed() {
		return q.pub, nil
	}
	if q.conn == nil || q.conn.IsClosed() {
		conn, err := amqp.Dial(q.url)
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		q.conn = conn
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	q.pub = ch
	return ch, nil
}

func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(amqpQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

func publishing(t domain.Task) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/msgpack",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    t.ID,
		Type:         t.Name,
		Headers:      amqp.Table{amqpAttemptHeader: int32(t.Attempt)},
		Body:         t.Payload,
	}
}

func (q *AMQP) Enqueue(ctx context.Context, t domain.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, err := q.publisher()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", amqpQueueName, false, false, publishing(t)); err != nil {
		return fmt.Errorf("publish %s: %w", t.Name, err)
	}
	return nil
}

// Run consumes until ctx is done, reconnecting with exponential backoff
// whenever the broker goes away.
func (q *AMQP) Run(ctx context.Context, h domain.TaskHandler) error {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(q.url)
		if err != nil {
			q.logger.With("err", err).WarnContext(ctx, "task consumer: dial failed", "retry_in", backoff)
			if !sleep(ctx, backoff) {
				break
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = q.consume(ctx, conn, h)
		_ = conn.Close()
		if err != nil && ctx.Err() == nil {
			q.logger.With("err", err).WarnContext(ctx, "task consumer: loop ended, reconnecting")
			sleep(ctx, 2*time.Second)
		}
	}
	return nil
}

func (q *AMQP) consume(ctx context.Context, conn *amqp.Connection, h domain.TaskHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(q.opts.Workers, 0, false); err != nil {
		q.logger.With("err", err).WarnContext(ctx, "task consumer: set QoS failed")
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(amqpQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	var wg sync.WaitGroup
	defer wg.Wait()
	for range q.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						return
					}
					q.deliver(ctx, h, d)
				}
			}
		}()
	}
	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	return awaitConsumerExit(ctx, connClosed, chClosed, workersDone)
}

// awaitConsumerExit blocks until ctx is done or the consumer can no longer
// receive deliveries. A nil result means a clean shutdown; anything else
// tells Run to reconnect.
func awaitConsumerExit(ctx context.Context, connClosed, chClosed <-chan *amqp.Error, workersDone <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-connClosed:
		if err == nil {
			return errors.New("connection closed")
		}
		return err
	case err := <-chClosed:
		if err == nil {
			return errors.New("channel closed")
		}
		return fmt.Errorf("channel closed: %w", err)
	case <-workersDone:
		if ctx.Err() != nil {
			return nil
		}
		return errors.New("delivery stream ended")
	}
}

func (q *AMQP) deliver(ctx context.Context, h domain.TaskHandler, d amqp.Delivery) {
	t := taskFromDelivery(d)
	err := h.Handle(ctx, t)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	log := q.logger.With("err", err, "task", t.Name, "id", t.ID, "attempt", t.Attempt)
	if t.Attempt >= q.opts.MaxAttempts {
		log.ErrorContext(ctx, "task failed, giving up")
		_ = d.Nack(false, false)
		return
	}
	log.WarnContext(ctx, "task failed, will retry", "delay", q.opts.RetryDelay)
	if !sleep(ctx, q.opts.RetryDelay) {
		_ = d.Nack(false, true)
		return
	}
	// Republish with the new attempt count, then drop the original.
	if err := q.Enqueue(ctx, t); err != nil {
		log.With("requeue_err", err).ErrorContext(ctx, "requeue task")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// taskFromDelivery rebuilds a task; Attempt counts this delivery.
func taskFromDelivery(d amqp.Delivery) domain.Task {
	return domain.Task{
		ID:      d.MessageId,
		Name:    d.Type,
		Payload: d.Body,
		Attempt: attemptFromHeaders(d.Headers) + 1,
	}
}

func attemptFromHeaders(h amqp.Table) int {
	switch v := h[amqpAttemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

func (q *AMQP) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	var errs []error
	if q.pub != nil {
		errs = append(errs, q.pub.Close())
		q.pub = nil
	}
	if q.conn != nil && !q.conn.IsClosed() {
		errs = append(errs, q.conn.Close())
	}
	q.conn = nil
	return errors.Join(errs...)
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
