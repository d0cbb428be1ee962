package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	defaultHandleAttempts = 3
	defaultRetryBackoff   = time.Second
)

type Handler func(ctx context.Context, msg kafka.Message) error

// MessageReader is the part of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer commits an offset only after its message was handled. A handler
// error is retried with a linear backoff; once attempts run out the message
// is logged and committed so the partition keeps moving.
type Consumer struct {
	reader   MessageReader
	log      *slog.Logger
	attempts int
	backoff  time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, log *slog.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), log.With("topic", topic), defaultHandleAttempts, defaultRetryBackoff)
}

func newConsumer(reader MessageReader, log *slog.Logger, attempts int, backoff time.Duration) *Consumer {
	if attempts < 1 {
		attempts = 1
	}
	return &Consumer{reader: reader, log: log, attempts: attempts, backoff: backoff}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume runs until ctx is cancelled or the reader fails. A message whose
// handling was interrupted by cancellation stays uncommitted and is
// redelivered to the next consumer of the group.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !c.handle(ctx, handler, msg) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handle reports false when ctx ended before the message was settled.
func (c *Consumer) handle(ctx context.Context, handler Handler, msg kafka.Message) bool {
	log := c.log.With("partition", msg.Partition, "offset", msg.Offset)

	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= c.attempts {
			log.Error("dropping message after retries", "attempts", attempt, "error", err)
			return true
		}

		log.Warn("message handling failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
}
