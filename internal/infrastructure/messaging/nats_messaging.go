// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// INatsConn is a NATS connection interface needed for the [MessageBuilder].
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// Ensure that MessageBuilder implements domain.WebhookEventPublisher
var _ domain.WebhookEventPublisher = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// publish sends the message to the NATS server.
func (m *MessageBuilder) publish(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// PublishWebhookEvent publishes an authenticated webhook event to NATS for
// async processing.
func (m *MessageBuilder) PublishWebhookEvent(ctx context.Context, subject string, message *models.WebhookEventMessage) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling webhook event into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "publishing webhook event to NATS",
		"subject", subject,
		"event_type", message.EventType,
		"received_at", message.ReceivedAt,
	)

	return m.publish(ctx, subject, messageBytes)
}

// NatsMessage adapts a [nats.Msg] to the [domain.Message] interface.
type NatsMessage struct {
	msg *nats.Msg
}

// NewNatsMessage creates a new NATS message adapter
func NewNatsMessage(msg *nats.Msg) *NatsMessage {
	return &NatsMessage{msg: msg}
}

// Subject returns the subject of the message
func (m *NatsMessage) Subject() string {
	return m.msg.Subject
}

// Data returns the payload of the message
func (m *NatsMessage) Data() []byte {
	return m.msg.Data
}

// Respond replies to the message
func (m *NatsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

// HasReply reports whether the sender expects a reply
func (m *NatsMessage) HasReply() bool {
	return m.msg.Reply != ""
}
