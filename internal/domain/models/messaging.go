// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// NATS subjects for webhook event fan-out. The ingress publishes one message
// per authenticated webhook; queue-subscribed handlers process them
// asynchronously.
const (
	// RecorderWebhookBotCompletedSubject is the subject for bot.completed events.
	RecorderWebhookBotCompletedSubject = "lfx.recorder-api.webhook.bot.completed"

	// RecorderWebhookBotFailedSubject is the subject for bot.failed events.
	RecorderWebhookBotFailedSubject = "lfx.recorder-api.webhook.bot.failed"

	// RecorderWebhookBotStatusChangeSubject is the subject for bot.status_change events.
	RecorderWebhookBotStatusChangeSubject = "lfx.recorder-api.webhook.bot.status_change"

	// RecorderWebhookConnectionCreatedSubject is the subject for calendar.connection_created events.
	RecorderWebhookConnectionCreatedSubject = "lfx.recorder-api.webhook.calendar.connection_created"

	// RecorderWebhookConnectionUpdatedSubject is the subject for calendar.connection_updated events.
	RecorderWebhookConnectionUpdatedSubject = "lfx.recorder-api.webhook.calendar.connection_updated"

	// RecorderWebhookConnectionDeletedSubject is the subject for calendar.connection_deleted events.
	RecorderWebhookConnectionDeletedSubject = "lfx.recorder-api.webhook.calendar.connection_deleted"

	// RecorderWebhookConnectionErrorSubject is the subject for calendar.connection_error events.
	RecorderWebhookConnectionErrorSubject = "lfx.recorder-api.webhook.calendar.connection_error"

	// RecorderWebhookEventsSyncedSubject is the subject for calendar.events_synced events.
	RecorderWebhookEventsSyncedSubject = "lfx.recorder-api.webhook.calendar.events_synced"

	// RecorderWebhookEventCreatedSubject is the subject for calendar.event_created events.
	RecorderWebhookEventCreatedSubject = "lfx.recorder-api.webhook.calendar.event_created"

	// RecorderWebhookEventUpdatedSubject is the subject for calendar.event_updated events.
	RecorderWebhookEventUpdatedSubject = "lfx.recorder-api.webhook.calendar.event_updated"

	// RecorderWebhookEventCancelledSubject is the subject for calendar.event_cancelled events.
	RecorderWebhookEventCancelledSubject = "lfx.recorder-api.webhook.calendar.event_cancelled"
)

// RecorderAPIQueue is the NATS queue group for the recorder API service.
const RecorderAPIQueue = "lfx.recorder-api.queue"

// WebhookEventMessage is the message published to NATS for each authenticated
// webhook event. The payload stays untyped on the wire; handlers decode it
// into the typed per-event structure.
type WebhookEventMessage struct {
	EventType  string         `json:"event_type"`
	ReceivedAt time.Time      `json:"received_at"`
	Payload    map[string]any `json:"payload"`
}

// ToBotCompletedPayload decodes and validates the message payload as a
// bot.completed payload.
func (m *WebhookEventMessage) ToBotCompletedPayload() (*BotCompletedPayload, error) {
	return decodeAndValidate[BotCompletedPayload](m.Payload)
}

// ToBotFailedPayload decodes and validates the message payload as a
// bot.failed payload.
func (m *WebhookEventMessage) ToBotFailedPayload() (*BotFailedPayload, error) {
	return decodeAndValidate[BotFailedPayload](m.Payload)
}

// ToBotStatusChangePayload decodes and validates the message payload as a
// bot.status_change payload.
func (m *WebhookEventMessage) ToBotStatusChangePayload() (*BotStatusChangePayload, error) {
	return decodeAndValidate[BotStatusChangePayload](m.Payload)
}

// ToCalendarEventPayload decodes and validates the message payload as a
// calendar.event_created or calendar.event_updated payload.
func (m *WebhookEventMessage) ToCalendarEventPayload() (*CalendarEventPayload, error) {
	return decodeAndValidate[CalendarEventPayload](m.Payload)
}

// ToCalendarEventCancelledPayload decodes and validates the message payload
// as a calendar.event_cancelled payload.
func (m *WebhookEventMessage) ToCalendarEventCancelledPayload() (*CalendarEventCancelledPayload, error) {
	return decodeAndValidate[CalendarEventCancelledPayload](m.Payload)
}

// ToCalendarConnectionPayload decodes and validates the message payload as a
// calendar connection lifecycle payload.
func (m *WebhookEventMessage) ToCalendarConnectionPayload() (*CalendarConnectionPayload, error) {
	return decodeAndValidate[CalendarConnectionPayload](m.Payload)
}

// ToCalendarSyncPayload decodes and validates the message payload as a
// calendar.events_synced payload.
func (m *WebhookEventMessage) ToCalendarSyncPayload() (*CalendarSyncPayload, error) {
	return decodeAndValidate[CalendarSyncPayload](m.Payload)
}

type validatable interface {
	Validate() error
}

func decodeAndValidate[T any](data map[string]any) (*T, error) {
	payload, err := decodePayload[T](data)
	if err != nil {
		return nil, err
	}
	if v, ok := any(payload).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
	}
	return payload, nil
}
