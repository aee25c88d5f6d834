// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/service"
)

// HandleCalendarEventChange processes calendar.event_created and
// calendar.event_updated events: the cache is refreshed and a placeholder
// meeting is seeded for every instance that can be recorded. The placeholder
// is created even when the vendor already flags a bot as scheduled, because
// the real bot ID is only learned from later bot callbacks.
func (s *RecorderWebhookHandler) HandleCalendarEventChange(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarEventPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", payload.CalendarID))

	userID, err := s.userResolver.ResolveUser(ctx, service.ResolutionHints{CalendarID: payload.CalendarID})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, instance := range payload.Instances {
		event := calendarEventFromInstance(payload.CalendarID, instance)

		if err := s.calendarService.CacheEvent(ctx, event); err != nil {
			slog.ErrorContext(ctx, "failed to cache calendar event",
				"calendar_event_id", event.EventID,
				logging.ErrKey, err)
		}

		if event.MeetingURL == "" {
			continue
		}
		if event.StartTime == nil || !event.StartTime.After(now) {
			continue
		}

		if _, err := s.meetingService.CreatePlaceholderMeeting(ctx, userID, event); err != nil {
			slog.ErrorContext(ctx, "failed to seed placeholder meeting",
				"calendar_event_id", event.EventID,
				logging.ErrKey, err)
		}
	}
	return nil, nil
}

// HandleEventCancelled removes the cached event and fails any meeting still
// waiting on its placeholder bot.
func (s *RecorderWebhookHandler) HandleEventCancelled(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarEventCancelledPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_event_id", payload.EventID))

	if err := s.calendarService.RemoveEvent(ctx, payload.EventID); err != nil {
		slog.ErrorContext(ctx, "failed to remove cached event", logging.ErrKey, err)
	}

	return nil, s.meetingService.MarkEventCancelled(ctx, payload.EventID)
}

// HandleConnectionCreated processes calendar.connection_created and
// calendar.connection_updated events by creating or reactivating the calendar
// account.
func (s *RecorderWebhookHandler) HandleConnectionCreated(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarConnectionPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", payload.CalendarID))

	userID := payload.UserID
	if userID == "" {
		userID, err = s.userResolver.ResolveUser(ctx, service.ResolutionHints{CalendarID: payload.CalendarID})
		if err != nil {
			return nil, err
		}
	}

	account, err := s.calendarService.ActivateAccount(ctx, userID, payload)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "calendar connection active",
		"account_uid", account.UID,
		"user_id", account.UserID,
	)

	// A fresh connection means the vendor has events this service has never
	// seen. Refresh the cache and schedule the eligible ones right away; the
	// account stays active even if this pass fails, because the next sync
	// event retries it.
	summary, err := s.schedulerService.ScheduleCalendar(ctx, userID, payload.CalendarID, true)
	if err != nil {
		slog.ErrorContext(ctx, "initial scheduling pass failed for new connection", logging.ErrKey, err)
		return nil, nil
	}
	slog.InfoContext(ctx, "initial scheduling pass finished",
		"scheduled", summary.Scheduled,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return nil, nil
}

// HandleConnectionDeleted deactivates the account and removes its cached
// events.
func (s *RecorderWebhookHandler) HandleConnectionDeleted(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarConnectionPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", payload.CalendarID))

	return nil, s.calendarService.DeactivateAccount(ctx, payload.CalendarID, "", true)
}

// HandleConnectionError marks the account inactive and records the vendor
// error. Cached events stay in place so a later reconnect resumes cheaply.
func (s *RecorderWebhookHandler) HandleConnectionError(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarConnectionPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", payload.CalendarID))

	return nil, s.calendarService.DeactivateAccount(ctx, payload.CalendarID, payload.ErrorMessage, false)
}

// HandleEventsSynced force-refreshes the calendar's event cache and runs an
// auto-scheduling pass over the refreshed events.
func (s *RecorderWebhookHandler) HandleEventsSynced(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	payload, err := webhookEvent.ToCalendarSyncPayload()
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", payload.CalendarID))

	userID, err := s.userResolver.ResolveUser(ctx, service.ResolutionHints{CalendarID: payload.CalendarID})
	if err != nil {
		return nil, err
	}

	summary, err := s.schedulerService.ScheduleCalendar(ctx, userID, payload.CalendarID, true)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "calendar sync processed",
		"scheduled", summary.Scheduled,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return nil, nil
}

// calendarEventFromInstance projects one webhook instance onto the cached
// event model.
func calendarEventFromInstance(calendarID string, instance models.CalendarEventInstance) *models.CalendarEvent {
	return &models.CalendarEvent{
		EventID:            instance.EventID,
		CalendarID:         calendarID,
		Title:              instance.Title,
		StartTime:          instance.StartTime,
		EndTime:            instance.EndTime,
		MeetingURL:         instance.MeetingURL,
		BotScheduled:       instance.BotScheduled,
		SeriesID:           instance.SeriesID,
		SeriesBotScheduled: instance.SeriesBotScheduled,
		Recurrence:         instance.Recurrence,
	}
}
