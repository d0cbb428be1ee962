package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/FikranSE/bookingapp/internal/logger"
	"github.com/FikranSE/bookingapp/internal/push"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error {
	args := m.Called(ctx, topic, key, payload, maxRetries)
	return args.Error(0)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Send(ctx context.Context, token string, msg push.Message) error {
	args := m.Called(ctx, token, msg)
	return args.Error(0)
}

func TestPushQueue_Send(t *testing.T) {
	pub := &MockPublisher{}
	q := NewPushQueue(pub, "push-notifications")
	ctx := context.Background()
	msg := push.Message{Title: "Booking approved", Body: "Room A"}

	pub.On("PublishWithRetry", ctx, "push-notifications", "ExponentPushToken[x]", PushJob{Token: "ExponentPushToken[x]", Message: msg}, pushPublishRetries).Return(nil).Once()

	require.NoError(t, q.Send(ctx, "ExponentPushToken[x]", msg))
	pub.AssertExpectations(t)
}

func TestPushHandler(t *testing.T) {
	sender := &MockDeliverer{}
	handler := PushHandler(sender, logger.Discard())
	ctx := context.Background()

	job := PushJob{Token: "ExponentPushToken[x]", Message: push.Message{Title: "t", Body: "b"}}
	value, err := json.Marshal(job)
	require.NoError(t, err)

	sender.On("Send", ctx, job.Token, job.Message).Return(errors.New("provider down")).Once()

	assert.Error(t, handler(ctx, kafka.Message{Value: value}))
	assert.NoError(t, handler(ctx, kafka.Message{Value: []byte("{broken")}))
	sender.AssertExpectations(t)
}
