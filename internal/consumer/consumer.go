// Package consumer subscribes to the record feed and drives the ingestion
// pipeline, translating pipeline outcomes into logs and metrics.
package consumer

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/numline-systems/numline-ingest/internal/metrics"
	"github.com/numline-systems/numline-ingest/internal/models"
	"github.com/numline-systems/numline-ingest/internal/pipeline"
)

// Handler processes one decoded event and reports its terminal outcome.
// CreationHandler and UpdateHandler both satisfy this.
type Handler interface {
	Handle(ctx context.Context, ev models.RawEvent) pipeline.Outcome
}

// Subscriber is the slice of the NATS connection the consumer needs.
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// Consumer routes feed subjects to their pipeline handlers. It never retries
// an event: every message terminates in one outcome, and redelivery policy
// stays with the feed.
type Consumer struct {
	conn     Subscriber
	creation Handler
	update   Handler
	logger   *slog.Logger
	subs     []*nats.Subscription
}

func New(conn Subscriber, creation, update Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		conn:     conn,
		creation: creation,
		update:   update,
		logger:   logger,
	}
}

// Start subscribes to both feed subjects with queue groups so multiple
// consumer instances share the load.
func (c *Consumer) Start() error {
	sub, err := c.conn.QueueSubscribe(SubjectRecordsCreated, QueueRecordConsumers, func(msg *nats.Msg) {
		c.Process(context.Background(), msg.Subject, msg.Data)
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)

	sub, err = c.conn.QueueSubscribe(SubjectRecordsPostprocessing, QueuePostprocessingConsumers, func(msg *nats.Msg) {
		c.Process(context.Background(), msg.Subject, msg.Data)
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)

	return nil
}

// Process decodes one message and runs it through the handler for its
// subject. The returned outcome is what was logged and counted; tests call
// this directly.
func (c *Consumer) Process(ctx context.Context, subject string, data []byte) pipeline.Outcome {
	ev, err := models.ParseRawEvent(data)
	if err != nil {
		metrics.DecodeErrors.WithLabelValues(subject).Inc()
		outcome := pipeline.Outcome{
			Kind: pipeline.OutcomeRejected,
			Err:  &pipeline.ValidationError{Reason: err.Error()},
		}
		c.report(ctx, subject, outcome)
		return outcome
	}

	var outcome pipeline.Outcome
	switch subject {
	case SubjectRecordsPostprocessing:
		outcome = c.update.Handle(ctx, ev)
	default:
		outcome = c.creation.Handle(ctx, ev)
	}

	c.report(ctx, subject, outcome)
	return outcome
}

// report maps outcomes to log levels: rejections warn, skips inform, sink
// failures error. Nothing is dropped silently.
func (c *Consumer) report(ctx context.Context, subject string, outcome pipeline.Outcome) {
	metrics.EventsTotal.WithLabelValues(subject, string(outcome.Kind)).Inc()

	switch outcome.Kind {
	case pipeline.OutcomeRejected:
		c.logger.WarnContext(ctx, "invalid record skipped",
			slog.String("subject", subject),
			slog.String("key", outcome.Key),
			slog.String("reason", outcome.Err.Error()),
		)
	case pipeline.OutcomeSkipped:
		c.logger.InfoContext(ctx, "duplicate record skipped",
			slog.String("subject", subject),
			slog.String("key", outcome.Key),
		)
	case pipeline.OutcomeDone:
		if outcome.Failed() {
			for _, s := range outcome.Sinks {
				if s.Err == nil {
					continue
				}
				c.logger.ErrorContext(ctx, "sink write failed",
					slog.String("subject", subject),
					slog.String("key", outcome.Key),
					slog.String("sink", string(s.Sink)),
					slog.String("error", s.Err.Error()),
				)
			}
			return
		}
		c.logger.InfoContext(ctx, "record processed",
			slog.String("subject", subject),
			slog.String("key", outcome.Key),
		)
	}
}

// Stop unsubscribes from all active subscriptions.
func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil
}
