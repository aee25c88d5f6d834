// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/service"
)

// RecorderWebhookHandler consumes the fanned-out webhook events from NATS and
// drives the reconciliation services.
type RecorderWebhookHandler struct {
	meetingService   *service.MeetingService
	calendarService  *service.CalendarService
	schedulerService *service.SchedulerService
	artifactService  *service.ArtifactService
	userResolver     *service.UserResolver
}

func NewRecorderWebhookHandler(
	meetingService *service.MeetingService,
	calendarService *service.CalendarService,
	schedulerService *service.SchedulerService,
	artifactService *service.ArtifactService,
	userResolver *service.UserResolver,
) *RecorderWebhookHandler {
	return &RecorderWebhookHandler{
		meetingService:   meetingService,
		calendarService:  calendarService,
		schedulerService: schedulerService,
		artifactService:  artifactService,
		userResolver:     userResolver,
	}
}

func (s *RecorderWebhookHandler) HandlerReady() bool {
	return s.meetingService.ServiceReady() &&
		s.calendarService.ServiceReady() &&
		s.schedulerService.ServiceReady() &&
		s.artifactService.ServiceReady() &&
		s.userResolver.ServiceReady()
}

// HandleMessage implements [domain.MessageHandler] interface
func (s *RecorderWebhookHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	var response []byte
	var err error

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.RecorderWebhookBotCompletedSubject:      s.HandleBotCompleted,
		models.RecorderWebhookBotFailedSubject:         s.HandleBotFailed,
		models.RecorderWebhookBotStatusChangeSubject:   s.HandleBotStatusChange,
		models.RecorderWebhookConnectionCreatedSubject: s.HandleConnectionCreated,
		models.RecorderWebhookConnectionUpdatedSubject: s.HandleConnectionCreated,
		models.RecorderWebhookConnectionDeletedSubject: s.HandleConnectionDeleted,
		models.RecorderWebhookConnectionErrorSubject:   s.HandleConnectionError,
		models.RecorderWebhookEventsSyncedSubject:      s.HandleEventsSynced,
		models.RecorderWebhookEventCreatedSubject:      s.HandleCalendarEventChange,
		models.RecorderWebhookEventUpdatedSubject:      s.HandleCalendarEventChange,
		models.RecorderWebhookEventCancelledSubject:    s.HandleEventCancelled,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		if msg.HasReply() {
			err = msg.Respond(nil)
			if err != nil {
				slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			}
		}
		return
	}

	response, err = handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message",
			logging.ErrKey, err,
		)
		if msg.HasReply() {
			err = msg.Respond(nil)
			if err != nil {
				slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			}
		}
		return
	}

	if msg.HasReply() {
		err = msg.Respond(response)
		if err != nil {
			slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			return
		}
		slog.DebugContext(ctx, "responded to NATS message", "response", response)
	} else {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
	}
}

// parseWebhookEvent is a helper to parse webhook event messages
func (s *RecorderWebhookHandler) parseWebhookEvent(ctx context.Context, msg domain.Message) (*models.WebhookEventMessage, error) {
	var webhookEvent models.WebhookEventMessage
	if err := json.Unmarshal(msg.Data(), &webhookEvent); err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal webhook event", logging.ErrKey, err)
		return nil, err
	}
	return &webhookEvent, nil
}
