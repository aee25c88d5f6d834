// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// NatsCalendarEventRepository is the NATS KV store repository for cached
// calendar events.
//
// Layout of the calendar-events bucket:
//   - event/<eventID>                        the cached event
//   - index/calendar/<calendarID>/<eventID>  membership index (empty value)
type NatsCalendarEventRepository struct {
	*NatsBaseRepository[models.CalendarEvent]
	keyBuilder *KeyBuilder
}

// NewNatsCalendarEventRepository creates a new NATS KV store repository for
// cached calendar events.
func NewNatsCalendarEventRepository(kvStore INatsKeyValue) *NatsCalendarEventRepository {
	return &NatsCalendarEventRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarEvent](kvStore, "calendar event"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsCalendarEventRepository) entityKey(eventID string) string {
	return r.keyBuilder.EntityKey(KeyPrefixEvent, eventID)
}

func (r *NatsCalendarEventRepository) calendarIndexKey(calendarID, eventID string) string {
	return r.keyBuilder.ScopedIndexKey(KeyPrefixIndexCalendar, calendarID, eventID)
}

func (r *NatsCalendarEventRepository) calendarIndexPrefix(calendarID string) string {
	return fmt.Sprintf("%s/%s/%s/", KeyPrefixIndex, KeyPrefixIndexCalendar, calendarID)
}

// UpsertEvent writes a cached event keyed by its vendor event ID, refreshing
// the membership index for its calendar.
func (r *NatsCalendarEventRepository) UpsertEvent(ctx context.Context, event *models.CalendarEvent) error {
	if event.EventID == "" {
		return domain.NewValidationError("calendar event ID is required")
	}
	if event.CalendarID == "" {
		return domain.NewValidationError("calendar ID is required")
	}

	if err := r.Put(ctx, r.entityKey(event.EventID), event); err != nil {
		return err
	}

	return r.PutIndex(ctx, r.calendarIndexKey(event.CalendarID, event.EventID), event.EventID)
}

// GetEvent retrieves a cached event by its vendor event ID.
func (r *NatsCalendarEventRepository) GetEvent(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	return r.Get(ctx, r.entityKey(eventID))
}

// DeleteEvent removes a cached event and its membership index.
func (r *NatsCalendarEventRepository) DeleteEvent(ctx context.Context, eventID string) error {
	event, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if err := r.DeleteWithoutRevision(ctx, r.entityKey(eventID)); err != nil {
		return err
	}

	if err := r.DeleteIndex(ctx, r.calendarIndexKey(event.CalendarID, eventID)); err != nil {
		slog.WarnContext(ctx, "failed to delete calendar membership index",
			logging.ErrKey, err, "event_id", eventID, "calendar_id", event.CalendarID)
	}

	return nil
}

// ListEventsByCalendar lists all cached events of one calendar via its
// membership index.
func (r *NatsCalendarEventRepository) ListEventsByCalendar(ctx context.Context, calendarID string) ([]*models.CalendarEvent, error) {
	keys, err := r.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	prefix := r.calendarIndexPrefix(calendarID)
	events := []*models.CalendarEvent{}
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		eventID := strings.TrimPrefix(key, prefix)
		event, err := r.GetEvent(ctx, eventID)
		if err != nil {
			slog.WarnContext(ctx, "failed to get indexed calendar event, skipping",
				logging.ErrKey, err, "event_id", eventID)
			continue
		}

		events = append(events, event)
	}

	return events, nil
}

// DeleteEventsByCalendar removes every cached event belonging to a calendar.
// This is the explicit cleanup path used when a calendar connection is
// deleted.
func (r *NatsCalendarEventRepository) DeleteEventsByCalendar(ctx context.Context, calendarID string) error {
	events, err := r.ListEventsByCalendar(ctx, calendarID)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := r.DeleteEvent(ctx, event.EventID); err != nil {
			slog.WarnContext(ctx, "failed to delete cached calendar event",
				logging.ErrKey, err, "event_id", event.EventID, "calendar_id", calendarID)
		}
	}

	return nil
}
