// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// ResolutionHints are the identification clues carried by one webhook event.
// Any subset may be present.
type ResolutionHints struct {
	Correlation *models.Correlation
	CalendarID  string
	BotID       string
	EventID     string
}

// UserResolver resolves the owning user of a webhook event through an ordered
// fallback chain. Events whose owner cannot be resolved are rejected rather
// than attributed to a default user.
type UserResolver struct {
	accountRepository domain.CalendarAccountRepository
	meetingRepository domain.MeetingRepository
}

// NewUserResolver creates a new UserResolver
func NewUserResolver(
	accountRepository domain.CalendarAccountRepository,
	meetingRepository domain.MeetingRepository,
) *UserResolver {
	return &UserResolver{
		accountRepository: accountRepository,
		meetingRepository: meetingRepository,
	}
}

// ServiceReady checks if the service is ready to process requests
func (r *UserResolver) ServiceReady() bool {
	return r.accountRepository != nil && r.meetingRepository != nil
}

// ResolveUser walks the fallback chain and returns the first user it finds:
// correlation user ID, then calendar account ownership, then the owner of an
// existing meeting matched by bot ID, then by calendar event ID.
func (r *UserResolver) ResolveUser(ctx context.Context, hints ResolutionHints) (string, error) {
	if hints.Correlation != nil && hints.Correlation.UserID != "" {
		slog.DebugContext(ctx, "resolved user from correlation", "user_id", hints.Correlation.UserID)
		return hints.Correlation.UserID, nil
	}

	if userID := r.resolveFromCalendar(ctx, hints); userID != "" {
		return userID, nil
	}

	if hints.BotID != "" {
		meeting, err := r.meetingRepository.GetMeetingByBotID(ctx, hints.BotID)
		if err == nil && meeting.UserID != "" {
			slog.DebugContext(ctx, "resolved user from existing meeting by bot ID",
				"user_id", meeting.UserID,
				"bot_id", hints.BotID,
			)
			return meeting.UserID, nil
		}
	}

	if userID := r.resolveFromEventID(ctx, hints); userID != "" {
		return userID, nil
	}

	return "", domain.NewAttributionError("unable to resolve the owning user for the event")
}

// resolveFromCalendar maps the event's calendar ID (direct or from the
// correlation blob) to the account that owns it.
func (r *UserResolver) resolveFromCalendar(ctx context.Context, hints ResolutionHints) string {
	calendarID := hints.CalendarID
	if calendarID == "" && hints.Correlation != nil {
		calendarID = hints.Correlation.CalendarID
	}
	if calendarID == "" {
		return ""
	}

	account, err := r.accountRepository.GetAccountByCalendarID(ctx, calendarID)
	if err != nil {
		return ""
	}
	slog.DebugContext(ctx, "resolved user from calendar account",
		"user_id", account.UserID,
		"calendar_id", calendarID,
	)
	return account.UserID
}

// resolveFromEventID finds an existing meeting referencing the event's
// calendar event ID (direct or from the correlation blob).
func (r *UserResolver) resolveFromEventID(ctx context.Context, hints ResolutionHints) string {
	eventID := hints.EventID
	if eventID == "" && hints.Correlation != nil {
		eventID = hints.Correlation.EventID
	}
	if eventID == "" {
		return ""
	}

	meeting, err := r.meetingRepository.GetMeetingByCalendarEventID(ctx, eventID)
	if err != nil || meeting.UserID == "" {
		return ""
	}
	slog.DebugContext(ctx, "resolved user from existing meeting by event ID",
		"user_id", meeting.UserID,
		"calendar_event_id", eventID,
	)
	return meeting.UserID
}
