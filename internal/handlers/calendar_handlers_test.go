// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

func activeAccount() *models.CalendarAccount {
	return &models.CalendarAccount{
		UID:        "acct-1",
		UserID:     "user-1",
		Provider:   "google",
		CalendarID: "cal-1",
		Active:     true,
	}
}

func TestHandleCalendarEventChange(t *testing.T) {
	futureStart := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	pastStart := time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339)

	t.Run("caches instances and seeds placeholders for recordable ones", func(t *testing.T) {
		f := newHandlerFixture()
		f.accounts.On("GetAccountByCalendarID", mock.Anything, "cal-1").Return(activeAccount(), nil)
		f.events.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
		f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-future").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		f.meetings.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "pending-evt-future" && m.UserID == "user-1"
		})).Return(nil)

		msg := webhookMessage(t, models.RecorderWebhookEventCreatedSubject, models.WebhookEventEventCreated, map[string]any{
			"calendar_id": "cal-1",
			"instances": []map[string]any{
				{
					"event_id":      "evt-future",
					"title":         "Planning",
					"start_time":    futureStart,
					"meeting_url":   "https://zoom.us/j/123",
					"bot_scheduled": true,
				},
				{
					"event_id":   "evt-no-url",
					"start_time": futureStart,
				},
				{
					"event_id":    "evt-past",
					"start_time":  pastStart,
					"meeting_url": "https://zoom.us/j/456",
				},
			},
		})
		_, err := f.handler.HandleCalendarEventChange(context.Background(), msg)

		require.NoError(t, err)
		// All three instances land in the cache; only the future one with a
		// meeting URL gets a placeholder meeting.
		f.events.AssertNumberOfCalls(t, "UpsertEvent", 3)
		f.meetings.AssertNumberOfCalls(t, "CreateMeeting", 1)
	})

	t.Run("empty instances are rejected", func(t *testing.T) {
		f := newHandlerFixture()
		msg := webhookMessage(t, models.RecorderWebhookEventCreatedSubject, models.WebhookEventEventCreated, map[string]any{
			"calendar_id": "cal-1",
			"instances":   []map[string]any{},
		})
		_, err := f.handler.HandleCalendarEventChange(context.Background(), msg)
		require.Error(t, err)
	})
}

func TestHandleEventCancelled(t *testing.T) {
	f := newHandlerFixture()
	placeholder := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", Status: models.BotStatusScheduled}
	f.events.On("DeleteEvent", mock.Anything, "evt-1").Return(nil)
	f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(placeholder, nil)
	f.meetings.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(placeholder, uint64(1), nil)
	f.meetings.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
		return m.Status == models.BotStatusFailed && m.ErrorCode == "EVENT_CANCELLED"
	}), uint64(1)).Return(nil)

	msg := webhookMessage(t, models.RecorderWebhookEventCancelledSubject, models.WebhookEventEventCancelled, map[string]any{
		"calendar_id": "cal-1",
		"event_id":    "evt-1",
	})
	_, err := f.handler.HandleEventCancelled(context.Background(), msg)

	require.NoError(t, err)
	f.events.AssertExpectations(t)
	f.meetings.AssertExpectations(t)
}

func TestHandleConnectionCreated(t *testing.T) {
	f := newHandlerFixture()
	f.accounts.On("GetAccountByCalendarID", mock.Anything, "cal-1").
		Return(nil, domain.NewNotFoundError("account not found"))
	f.accounts.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a *models.CalendarAccount) bool {
		return a.UserID == "user-1" && a.CalendarID == "cal-1" && a.Active
	})).Return(nil)
	f.client.On("ListCalendarEvents", mock.Anything, "cal-1", mock.Anything, mock.Anything).
		Return([]*models.CalendarEvent{}, nil)

	msg := webhookMessage(t, models.RecorderWebhookConnectionCreatedSubject, models.WebhookEventConnectionCreated, map[string]any{
		"user_id":     "user-1",
		"provider":    "google",
		"email":       "alice@example.com",
		"calendar_id": "cal-1",
	})
	_, err := f.handler.HandleConnectionCreated(context.Background(), msg)

	require.NoError(t, err)
	f.accounts.AssertExpectations(t)
	// Activation immediately refreshes the calendar from the vendor.
	f.client.AssertExpectations(t)
}

func TestHandleConnectionDeleted(t *testing.T) {
	f := newHandlerFixture()
	account := activeAccount()
	f.accounts.On("GetAccountByCalendarID", mock.Anything, "cal-1").Return(account, nil)
	f.accounts.On("GetAccountWithRevision", mock.Anything, "acct-1").Return(account, uint64(1), nil)
	f.accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(func(a *models.CalendarAccount) bool {
		return !a.Active
	}), uint64(1)).Return(nil)
	f.events.On("DeleteEventsByCalendar", mock.Anything, "cal-1").Return(nil)

	msg := webhookMessage(t, models.RecorderWebhookConnectionDeletedSubject, models.WebhookEventConnectionDeleted, map[string]any{
		"calendar_id": "cal-1",
	})
	_, err := f.handler.HandleConnectionDeleted(context.Background(), msg)

	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestHandleConnectionError(t *testing.T) {
	f := newHandlerFixture()
	account := activeAccount()
	f.accounts.On("GetAccountByCalendarID", mock.Anything, "cal-1").Return(account, nil)
	f.accounts.On("GetAccountWithRevision", mock.Anything, "acct-1").Return(account, uint64(1), nil)
	f.accounts.On("UpdateAccount", mock.Anything, mock.MatchedBy(func(a *models.CalendarAccount) bool {
		return !a.Active && a.LastError == "refresh token revoked"
	}), uint64(1)).Return(nil)

	msg := webhookMessage(t, models.RecorderWebhookConnectionErrorSubject, models.WebhookEventConnectionError, map[string]any{
		"calendar_id":   "cal-1",
		"error_message": "refresh token revoked",
	})
	_, err := f.handler.HandleConnectionError(context.Background(), msg)

	require.NoError(t, err)
	f.events.AssertNotCalled(t, "DeleteEventsByCalendar", mock.Anything, mock.Anything)
}

func TestHandleEventsSynced(t *testing.T) {
	f := newHandlerFixture()
	start := time.Now().Add(2 * time.Hour).UTC()

	f.accounts.On("GetAccountByCalendarID", mock.Anything, "cal-1").Return(activeAccount(), nil)
	f.client.On("ListCalendarEvents", mock.Anything, "cal-1", mock.Anything, mock.Anything).
		Return([]*models.CalendarEvent{
			{
				EventID:    "evt-1",
				CalendarID: "cal-1",
				MeetingURL: "https://zoom.us/j/123",
				StartTime:  &start,
			},
		}, nil)
	f.events.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
	f.client.On("ScheduleBot", mock.Anything, mock.MatchedBy(func(r *domain.ScheduleBotRequest) bool {
		return r.EventID == "evt-1" && r.Correlation != nil && r.Correlation.UserID == "user-1"
	})).Return(&domain.Bot{ID: "bot-1"}, nil)
	f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").
		Return(nil, domain.NewNotFoundError("meeting not found"))
	f.meetings.On("CreateMeeting", mock.Anything, mock.Anything).Return(nil)

	msg := webhookMessage(t, models.RecorderWebhookEventsSyncedSubject, models.WebhookEventEventsSynced, map[string]any{
		"calendar_id": "cal-1",
	})
	_, err := f.handler.HandleEventsSynced(context.Background(), msg)

	require.NoError(t, err)
	// The sync bypasses the cache and refreshes from the vendor.
	f.events.AssertNotCalled(t, "ListEventsByCalendar", mock.Anything, mock.Anything)
	f.client.AssertExpectations(t)
	assert.True(t, f.handler.HandlerReady())
}
