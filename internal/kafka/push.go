package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/FikranSE/bookingapp/internal/push"
	"github.com/segmentio/kafka-go"
)

const pushPublishRetries = 3

type PushJob struct {
	Token   string       `json:"token"`
	Message push.Message `json:"message"`
}

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

// PushQueue hands push notifications to the worker through a topic.
type PushQueue struct {
	publisher Publisher
	topic     string
}

func NewPushQueue(publisher Publisher, topic string) *PushQueue {
	return &PushQueue{publisher: publisher, topic: topic}
}

func (q *PushQueue) Send(ctx context.Context, token string, msg push.Message) error {
	return q.publisher.PublishWithRetry(ctx, q.topic, token, PushJob{Token: token, Message: msg}, pushPublishRetries)
}

type PushDeliverer interface {
	Send(ctx context.Context, token string, msg push.Message) error
}

// PushHandler delivers queued push jobs. A job that cannot be decoded is
// logged and skipped; a failed delivery is returned so the consumer retries it.
func PushHandler(sender PushDeliverer, log *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var job PushJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			log.Warn("decode push job", "offset", msg.Offset, "error", err)
			return nil
		}
		if err := sender.Send(ctx, job.Token, job.Message); err != nil {
			return fmt.Errorf("deliver push %q: %w", job.Message.Title, err)
		}
		log.Debug("push delivered", "offset", msg.Offset, "title", job.Message.Title)
		return nil
	}
}
