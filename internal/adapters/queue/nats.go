package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"conferencecentral/internal/domain"
)

const (
	natsStreamName    = "CONFERENCE_TASKS"
	natsSubjectPrefix = "conference.tasks."
	natsConsumerName  = "conferencecentral-worker"
)

// NATS carries tasks on a JetStream work-queue stream, one subject per task
// name. Redelivery and the attempt limit are left to the server.
type NATS struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	opts   Options
	logger *slog.Logger
}

// NewNATS connects and makes sure the task stream exists.
func NewNATS(ctx context.Context, url string, opts Options, logger *slog.Logger) (*NATS, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("conferencecentral"),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				logger.With("err", err, "subject", s.Subject).Error("async NATS error")
				return
			}
			logger.With("err", err).Error("async NATS error outside subscription")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      natsStreamName,
		Subjects:  []string{natsSubjectPrefix + ">"},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", natsStreamName, err)
	}
	return &NATS{nc: nc, js: js, opts: opts.withDefaults(), logger: logger}, nil
}

func natsSubject(taskName string) string { return natsSubjectPrefix + taskName }

func taskNameFromSubject(subject string) string {
	return strings.TrimPrefix(subject, natsSubjectPrefix)
}

func (n *NATS) Enqueue(ctx context.Context, t domain.Task) error {
	msg := nats.NewMsg(natsSubject(t.Name))
	msg.Data = t.Payload
	// The server drops duplicates of the same id inside its dedupe window.
	msg.Header.Set(nats.MsgIdHdr, t.ID)
	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", t.Name, err)
	}
	return nil
}

// Run attaches a durable consumer and blocks until ctx is done.
func (n *NATS) Run(ctx context.Context, h domain.TaskHandler) error {
	consumer, err := n.js.CreateOrUpdateConsumer(ctx, natsStreamName, jetstream.ConsumerConfig{
		Name:          natsConsumerName,
		Durable:       natsConsumerName,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: natsSubjectPrefix + ">",
		MaxDeliver:    n.opts.MaxAttempts,
		AckWait:       30 * time.Second,
		MaxAckPending: n.opts.Workers * 10,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", natsConsumerName, err)
	}
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		n.deliver(ctx, h, msg)
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		n.logger.With("err", err, "consumer", natsConsumerName).Error("task consumer error")
	}))
	if err != nil {
		return fmt.Errorf("start consumer %s: %w", natsConsumerName, err)
	}
	<-ctx.Done()
	cc.Drain()
	<-cc.Closed()
	return nil
}

func (n *NATS) deliver(ctx context.Context, h domain.TaskHandler, msg jetstream.Msg) {
	t := domain.Task{
		ID:      msg.Headers().Get(nats.MsgIdHdr),
		Name:    taskNameFromSubject(msg.Subject()),
		Payload: msg.Data(),
		Attempt: 1,
	}
	if md, err := msg.Metadata(); err == nil {
		t.Attempt = int(md.NumDelivered)
	}

	err := h.Handle(ctx, t)
	if err == nil {
		if err := msg.Ack(); err != nil {
			n.logger.With("err", err, "task", t.Name).Error("ack task")
		}
		return
	}
	log := n.logger.With("err", err, "task", t.Name, "id", t.ID, "attempt", t.Attempt)
	if t.Attempt >= n.opts.MaxAttempts {
		log.Error("task failed, giving up")
		_ = msg.Term()
		return
	}
	log.Warn("task failed, will retry", "delay", n.opts.RetryDelay)
	_ = msg.NakWithDelay(n.opts.RetryDelay)
}

func (n *NATS) Close() error {
	return n.nc.Drain()
}
