// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/service"
)

// HandleBotCompleted reconciles a bot.completed event onto its meeting and
// runs the artifact pipeline when the completion was newly applied.
func (s *RecorderWebhookHandler) HandleBotCompleted(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToBotCompletedPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("bot_id", payload.BotID))

	userID, err := s.userResolver.ResolveUser(ctx, service.ResolutionHints{
		Correlation: payload.Correlation(),
		BotID:       payload.BotID,
		EventID:     payload.EventID,
	})
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("user_id", userID))

	meeting, applied, err := s.meetingService.ReconcileBotCompleted(ctx, userID, payload)
	if err != nil {
		return nil, err
	}
	if !applied {
		slog.InfoContext(ctx, "bot completion already recorded, skipping artifact processing",
			"meeting_uid", meeting.UID)
		return nil, nil
	}

	if err := s.artifactService.ProcessArtifacts(ctx, meeting); err != nil {
		slog.ErrorContext(ctx, "artifact processing failed", logging.ErrKey, err)
		if updateErr := s.meetingService.UpdateProcessingStatus(ctx, meeting.UID, models.ProcessingStatusFailed); updateErr != nil {
			slog.ErrorContext(ctx, "failed to mark processing as failed", logging.ErrKey, updateErr)
		}
		return nil, nil
	}

	if err := s.meetingService.UpdateProcessingStatus(ctx, meeting.UID, models.ProcessingStatusCompleted); err != nil {
		slog.ErrorContext(ctx, "failed to mark processing as completed", logging.ErrKey, err)
	}
	return nil, nil
}

// HandleBotFailed records a bot failure on the owning meeting.
func (s *RecorderWebhookHandler) HandleBotFailed(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToBotFailedPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("bot_id", payload.BotID))

	userID, err := s.userResolver.ResolveUser(ctx, service.ResolutionHints{
		Correlation: payload.Correlation(),
		BotID:       payload.BotID,
		EventID:     payload.EventID,
	})
	if err != nil {
		return nil, err
	}

	return nil, s.meetingService.ReconcileBotFailure(ctx, userID, payload)
}

// HandleBotStatusChange applies a vendor status transition. A status for a
// bot this service has never seen is logged and dropped.
func (s *RecorderWebhookHandler) HandleBotStatusChange(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToBotStatusChangePayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("bot_id", payload.BotID))

	err = s.meetingService.UpdateBotStatus(ctx, payload.BotID, models.BotStatus(payload.Status.Code), payload.Correlation())
	if err != nil && domain.GetErrorType(err) == domain.ErrorTypeNotFound {
		slog.WarnContext(ctx, "status change for unknown bot",
			"status", payload.Status.Code)
		return nil, nil
	}
	return nil, err
}
