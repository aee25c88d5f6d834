// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

func newTestEvent(eventID, calendarID string, fetchedAt time.Time) *models.CalendarEvent {
	start := fetchedAt.Add(24 * time.Hour)
	return &models.CalendarEvent{
		EventID:    eventID,
		CalendarID: calendarID,
		Title:      "Standup",
		StartTime:  &start,
		MeetingURL: "https://meet.example.com/abc",
		FetchedAt:  fetchedAt,
	}
}

func TestUpsertEventIsIdempotent(t *testing.T) {
	repo := NewNatsCalendarEventRepository(newMockNatsKeyValue())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-1", "cal-1", now)))

	// A refresh re-writes the same key rather than duplicating the row.
	refreshed := newTestEvent("evt-1", "cal-1", now.Add(time.Hour))
	require.NoError(t, repo.UpsertEvent(ctx, refreshed))

	events, err := repo.ListEventsByCalendar(ctx, "cal-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.WithinDuration(t, now.Add(time.Hour), events[0].FetchedAt, time.Second)
}

func TestListEventsByCalendarScopesToCalendar(t *testing.T) {
	repo := NewNatsCalendarEventRepository(newMockNatsKeyValue())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-1", "cal-1", now)))
	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-2", "cal-1", now)))
	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-3", "cal-2", now)))

	events, err := repo.ListEventsByCalendar(ctx, "cal-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestDeleteEventsByCalendar(t *testing.T) {
	repo := NewNatsCalendarEventRepository(newMockNatsKeyValue())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-1", "cal-1", now)))
	require.NoError(t, repo.UpsertEvent(ctx, newTestEvent("evt-2", "cal-2", now)))

	require.NoError(t, repo.DeleteEventsByCalendar(ctx, "cal-1"))

	_, err := repo.GetEvent(ctx, "evt-1")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))

	// Other calendars are untouched.
	event, err := repo.GetEvent(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, "cal-2", event.CalendarID)
}
