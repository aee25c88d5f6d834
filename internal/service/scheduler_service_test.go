// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

type schedulerFixture struct {
	events   *mocks.MockCalendarEventRepository
	accounts *mocks.MockCalendarAccountRepository
	meetings *mocks.MockMeetingRepository
	client   *mocks.MockRecorderClient
	svc      *SchedulerService
}

func newSchedulerFixture(now time.Time) *schedulerFixture {
	f := &schedulerFixture{
		events:   &mocks.MockCalendarEventRepository{},
		accounts: &mocks.MockCalendarAccountRepository{},
		meetings: &mocks.MockMeetingRepository{},
		client:   &mocks.MockRecorderClient{},
	}
	calendars := NewCalendarService(f.events, f.accounts, f.client)
	calendars.now = func() time.Time { return now }
	f.svc = NewSchedulerService(calendars, NewMeetingService(f.meetings, ServiceConfig{}), f.client, ServiceConfig{BotName: "LFX Recorder"})
	f.svc.now = func() time.Time { return now }
	f.svc.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return f
}

func freshEvent(now time.Time, eventID string, mutate func(*models.CalendarEvent)) *models.CalendarEvent {
	start := now.Add(2 * time.Hour)
	event := &models.CalendarEvent{
		EventID:    eventID,
		CalendarID: "cal-1",
		MeetingURL: "https://zoom.us/j/123",
		StartTime:  &start,
		FetchedAt:  now,
	}
	if mutate != nil {
		mutate(event)
	}
	return event
}

func TestScheduleCalendar(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("schedules eligible events and skips the rest", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.events.On("ListEventsByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{
			freshEvent(now, "evt-eligible", nil),
			freshEvent(now, "evt-no-url", func(e *models.CalendarEvent) { e.MeetingURL = "" }),
			freshEvent(now, "evt-scheduled", func(e *models.CalendarEvent) { e.BotScheduled = true }),
			freshEvent(now, "evt-past", func(e *models.CalendarEvent) {
				past := now.Add(-time.Hour)
				e.StartTime = &past
			}),
		}, nil)
		f.client.On("ScheduleBot", mock.Anything, mock.MatchedBy(func(r *domain.ScheduleBotRequest) bool {
			return r.EventID == "evt-eligible" &&
				r.BotName == "LFX Recorder" &&
				r.Correlation != nil &&
				r.Correlation.UserID == "user-1" &&
				r.Correlation.CalendarID == "cal-1"
		})).Return(&domain.Bot{ID: "bot-1"}, nil)
		f.events.On("UpsertEvent", mock.Anything, mock.MatchedBy(func(e *models.CalendarEvent) bool {
			return e.EventID == "evt-eligible" && e.BotScheduled
		})).Return(nil)
		f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-eligible").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		f.meetings.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "pending-evt-eligible" && m.UserID == "user-1"
		})).Return(nil)

		summary, err := f.svc.ScheduleCalendar(context.Background(), "user-1", "cal-1", false)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Scheduled)
		assert.Equal(t, 3, summary.Skipped)
		assert.Equal(t, 0, summary.Failed)
		f.client.AssertExpectations(t)
		f.meetings.AssertExpectations(t)
	})

	t.Run("per-event failures accumulate without aborting the pass", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.events.On("ListEventsByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{
			freshEvent(now, "evt-1", nil),
			freshEvent(now, "evt-2", nil),
		}, nil)
		f.client.On("ScheduleBot", mock.Anything, mock.MatchedBy(func(r *domain.ScheduleBotRequest) bool {
			return r.EventID == "evt-1"
		})).Return(nil, domain.NewUnavailableError("vendor unavailable"))
		f.client.On("ScheduleBot", mock.Anything, mock.MatchedBy(func(r *domain.ScheduleBotRequest) bool {
			return r.EventID == "evt-2"
		})).Return(&domain.Bot{ID: "bot-2"}, nil)
		f.events.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
		f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-2").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		f.meetings.On("CreateMeeting", mock.Anything, mock.Anything).Return(nil)

		summary, err := f.svc.ScheduleCalendar(context.Background(), "user-1", "cal-1", false)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Scheduled)
		assert.Equal(t, 1, summary.Failed)
		require.Len(t, summary.Errors, 1)
		assert.Contains(t, summary.Errors[0], "evt-1")
	})

	t.Run("recurring series uses the next occurrence", func(t *testing.T) {
		f := newSchedulerFixture(now)
		seriesStart := now.Add(-30 * 24 * time.Hour)
		f.events.On("ListEventsByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{
			freshEvent(now, "evt-series", func(e *models.CalendarEvent) {
				e.SeriesID = "series-1"
				e.Recurrence = "FREQ=WEEKLY;BYDAY=TU"
				e.StartTime = &seriesStart
			}),
		}, nil)
		f.client.On("ScheduleBot", mock.Anything, mock.MatchedBy(func(r *domain.ScheduleBotRequest) bool {
			return r.EventID == "evt-series" && r.AllOccurrences
		})).Return(&domain.Bot{ID: "bot-1"}, nil)
		f.events.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
		f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-series").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		f.meetings.On("CreateMeeting", mock.Anything, mock.Anything).Return(nil)

		summary, err := f.svc.ScheduleCalendar(context.Background(), "user-1", "cal-1", false)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Scheduled)
	})

	t.Run("series with a bot already scheduled is skipped", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.events.On("ListEventsByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{
			freshEvent(now, "evt-series", func(e *models.CalendarEvent) {
				e.SeriesID = "series-1"
				e.SeriesBotScheduled = true
			}),
		}, nil)

		summary, err := f.svc.ScheduleCalendar(context.Background(), "user-1", "cal-1", false)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Skipped)
		f.client.AssertNotCalled(t, "ScheduleBot", mock.Anything, mock.Anything)
	})
}

func TestScheduleAllCalendars(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	f := newSchedulerFixture(now)
	f.accounts.On("ListAccountsByUser", mock.Anything, "user-1").Return([]*models.CalendarAccount{
		{UID: "acct-1", UserID: "user-1", CalendarID: "cal-1", Active: true},
		{UID: "acct-2", UserID: "user-1", CalendarID: "cal-2", Active: false},
	}, nil)
	f.events.On("ListEventsByCalendar", mock.Anything, "cal-1").Return([]*models.CalendarEvent{
		freshEvent(now, "evt-1", nil),
	}, nil)
	f.client.On("ScheduleBot", mock.Anything, mock.Anything).Return(&domain.Bot{ID: "bot-1"}, nil)
	f.events.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
	f.meetings.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").
		Return(nil, domain.NewNotFoundError("meeting not found"))
	f.meetings.On("CreateMeeting", mock.Anything, mock.Anything).Return(nil)

	summary, err := f.svc.ScheduleAllCalendars(context.Background(), "user-1", false)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scheduled)
	f.events.AssertNotCalled(t, "ListEventsByCalendar", mock.Anything, "cal-2")
}
