// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/constants"
)

// WebhookService authenticates inbound webhook requests and fans the events
// out to NATS for async processing.
type WebhookService struct {
	publisher          domain.WebhookEventPublisher
	secretValidator    domain.WebhookAuthenticator
	signatureValidator domain.WebhookAuthenticator
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	publisher domain.WebhookEventPublisher,
	secretValidator domain.WebhookAuthenticator,
	signatureValidator domain.WebhookAuthenticator,
) *WebhookService {
	return &WebhookService{
		publisher:          publisher,
		secretValidator:    secretValidator,
		signatureValidator: signatureValidator,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *WebhookService) ServiceReady() bool {
	return s.publisher != nil && s.secretValidator != nil && s.signatureValidator != nil
}

// ProcessWebhookEvent authenticates the raw request, parses the envelope, and
// publishes the event. Authentication comes first so unauthenticated callers
// never exercise the parser. Unknown event types are logged and acknowledged
// without publishing.
func (s *WebhookService) ProcessWebhookEvent(ctx context.Context, headers http.Header, rawBody []byte) error {
	if err := s.authenticate(headers, rawBody); err != nil {
		return err
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return domain.NewValidationError("invalid webhook payload", err)
	}
	if event.Event == "" {
		return domain.NewValidationError("missing event field")
	}

	subject := getWebhookSubject(event.Event)
	if subject == "" {
		// The vendor must never see a retryable error for an event this
		// service does not understand.
		slog.WarnContext(ctx, "unrecognized webhook event type", "event_type", event.Event)
		return nil
	}

	message := &models.WebhookEventMessage{
		EventType:  event.Event,
		ReceivedAt: time.Now().UTC(),
		Payload:    event.Data,
	}
	if err := s.publisher.PublishWebhookEvent(ctx, subject, message); err != nil {
		slog.ErrorContext(ctx, "failed to publish webhook event to NATS",
			"event_type", event.Event,
			"subject", subject,
			logging.ErrKey, err)
		return domain.NewInternalError("failed to process webhook event", err)
	}

	slog.InfoContext(ctx, "webhook event published", "event_type", event.Event, "subject", subject)
	return nil
}

// authenticate picks the scheme from the request headers. Requests carrying
// the signed-envelope headers use the signature validator; everything else
// must present the shared secret.
func (s *WebhookService) authenticate(headers http.Header, rawBody []byte) error {
	if headers.Get(constants.WebhookIDHeader) != "" ||
		headers.Get(constants.WebhookSignatureHeader) != "" {
		return s.signatureValidator.Authenticate(headers, rawBody)
	}
	return s.secretValidator.Authenticate(headers, rawBody)
}

// getWebhookSubject maps webhook event types to NATS subjects
func getWebhookSubject(eventType string) string {
	eventSubjectMap := map[string]string{
		models.WebhookEventBotCompleted:      models.RecorderWebhookBotCompletedSubject,
		models.WebhookEventBotFailed:         models.RecorderWebhookBotFailedSubject,
		models.WebhookEventBotStatusChange:   models.RecorderWebhookBotStatusChangeSubject,
		models.WebhookEventConnectionCreated: models.RecorderWebhookConnectionCreatedSubject,
		models.WebhookEventConnectionUpdated: models.RecorderWebhookConnectionUpdatedSubject,
		models.WebhookEventConnectionDeleted: models.RecorderWebhookConnectionDeletedSubject,
		models.WebhookEventConnectionError:   models.RecorderWebhookConnectionErrorSubject,
		models.WebhookEventEventsSynced:      models.RecorderWebhookEventsSyncedSubject,
		models.WebhookEventEventCreated:      models.RecorderWebhookEventCreatedSubject,
		models.WebhookEventEventUpdated:      models.RecorderWebhookEventUpdatedSubject,
		models.WebhookEventEventCancelled:    models.RecorderWebhookEventCancelledSubject,
	}

	return eventSubjectMap[eventType]
}
