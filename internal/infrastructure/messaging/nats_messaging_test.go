// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MockNATSConn is a mock implementation of INatsConn
type MockNATSConn struct {
	mock.Mock
}

func (m *MockNATSConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockNATSConn) Publish(subj string, data []byte) error {
	args := m.Called(subj, data)
	return args.Error(0)
}

func TestMessageBuilderPublish(t *testing.T) {
	tests := []struct {
		name         string
		publishError error
		expectError  bool
	}{
		{
			name:        "successful send",
			expectError: false,
		},
		{
			name:         "publish error",
			publishError: errors.New("publish failed"),
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockConn := new(MockNATSConn)
			mockConn.On("Publish", "test.subject", []byte("test data")).Return(tt.publishError)

			builder := &MessageBuilder{
				NatsConn: mockConn,
			}

			err := builder.publish(context.Background(), "test.subject", []byte("test data"))
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			mockConn.AssertExpectations(t)
		})
	}
}

func TestPublishWebhookEvent(t *testing.T) {
	mockConn := new(MockNATSConn)
	var published []byte
	mockConn.On("Publish", models.RecorderWebhookBotCompletedSubject, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]byte)
	}).Return(nil)

	builder := NewMessageBuilder(mockConn)
	message := &models.WebhookEventMessage{
		EventType:  models.WebhookEventBotCompleted,
		ReceivedAt: time.Now().UTC(),
		Payload:    map[string]any{"bot_id": "bot-1"},
	}

	err := builder.PublishWebhookEvent(context.Background(), models.RecorderWebhookBotCompletedSubject, message)
	require.NoError(t, err)

	var decoded models.WebhookEventMessage
	require.NoError(t, json.Unmarshal(published, &decoded))
	assert.Equal(t, models.WebhookEventBotCompleted, decoded.EventType)
	assert.Equal(t, "bot-1", decoded.Payload["bot_id"])
	mockConn.AssertExpectations(t)
}

func TestNatsMessageAdapter(t *testing.T) {
	msg := &nats.Msg{
		Subject: models.RecorderWebhookBotFailedSubject,
		Data:    []byte(`{"event_type":"bot.failed"}`),
	}

	adapted := NewNatsMessage(msg)
	assert.Equal(t, models.RecorderWebhookBotFailedSubject, adapted.Subject())
	assert.Equal(t, msg.Data, adapted.Data())
	assert.False(t, adapted.HasReply())

	msg.Reply = "inbox.1"
	assert.True(t, adapted.HasReply())
}
