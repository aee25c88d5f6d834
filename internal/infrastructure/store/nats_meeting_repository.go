// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
//
// Layout of the meetings bucket:
//   - meeting/<uid>            the meeting record
//   - index/bot/<botID>        value is the meeting UID
//   - index/event/<eventID>    value is the meeting UID
//
// The bot and event indexes are created with CreateIndex so that concurrent
// deliveries of the same webhook cannot seed two meetings for one bot or one
// calendar event.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
	keyBuilder *KeyBuilder
}

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsMeetingRepository) entityKey(meetingUID string) string {
	return r.keyBuilder.EntityKey(KeyPrefixMeeting, meetingUID)
}

func (r *NatsMeetingRepository) botIndexKey(botID string) string {
	return r.keyBuilder.IndexKey(KeyPrefixIndexBot, botID)
}

func (r *NatsMeetingRepository) eventIndexKey(calendarEventID string) string {
	return r.keyBuilder.IndexKey(KeyPrefixIndexEvent, calendarEventID)
}

// CreateMeeting stores a new meeting and its lookup indexes. The bot index is
// the uniqueness anchor: if another meeting already claimed the bot ID the
// whole creation fails with a conflict and the entity record is rolled back.
func (r *NatsMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if meeting.UID == "" {
		return domain.NewValidationError("meeting UID is required")
	}
	if meeting.BotID == "" {
		return domain.NewValidationError("meeting bot ID is required")
	}

	if err := r.CreateIndex(ctx, r.botIndexKey(meeting.BotID), meeting.UID); err != nil {
		return err
	}

	if err := r.CreateOnly(ctx, r.entityKey(meeting.UID), meeting); err != nil {
		if delErr := r.DeleteIndex(ctx, r.botIndexKey(meeting.BotID)); delErr != nil {
			slog.WarnContext(ctx, "failed to roll back bot index after meeting creation failure",
				logging.ErrKey, delErr, "bot_id", meeting.BotID)
		}
		return err
	}

	if meeting.CalendarEventID != "" {
		if err := r.CreateIndex(ctx, r.eventIndexKey(meeting.CalendarEventID), meeting.UID); err != nil {
			// A second meeting for the same calendar event means an earlier
			// record already owns it; surface the conflict to the caller.
			if delErr := r.DeleteWithoutRevision(ctx, r.entityKey(meeting.UID)); delErr != nil {
				slog.WarnContext(ctx, "failed to roll back meeting after event index conflict",
					logging.ErrKey, delErr, "meeting_uid", meeting.UID)
			}
			if delErr := r.DeleteIndex(ctx, r.botIndexKey(meeting.BotID)); delErr != nil {
				slog.WarnContext(ctx, "failed to roll back bot index after event index conflict",
					logging.ErrKey, delErr, "bot_id", meeting.BotID)
			}
			return err
		}
	}

	return nil
}

// GetMeeting retrieves a meeting by its UID.
func (r *NatsMeetingRepository) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	return r.Get(ctx, r.entityKey(meetingUID))
}

// GetMeetingWithRevision retrieves a meeting and its KV revision by UID.
func (r *NatsMeetingRepository) GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	return r.GetWithRevision(ctx, r.entityKey(meetingUID))
}

// UpdateMeeting updates a meeting with optimistic concurrency control.
func (r *NatsMeetingRepository) UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	if meeting.UID == "" {
		return domain.NewValidationError("meeting UID is required")
	}
	return r.Update(ctx, r.entityKey(meeting.UID), meeting, revision)
}

// DeleteMeeting removes a meeting and its indexes.
func (r *NatsMeetingRepository) DeleteMeeting(ctx context.Context, meetingUID string, revision uint64) error {
	meeting, err := r.GetMeeting(ctx, meetingUID)
	if err != nil {
		return err
	}

	if err := r.Delete(ctx, r.entityKey(meetingUID), revision); err != nil {
		return err
	}

	if meeting.BotID != "" {
		if err := r.DeleteIndex(ctx, r.botIndexKey(meeting.BotID)); err != nil {
			slog.WarnContext(ctx, "failed to delete bot index", logging.ErrKey, err, "bot_id", meeting.BotID)
		}
	}
	if meeting.CalendarEventID != "" {
		if err := r.DeleteIndex(ctx, r.eventIndexKey(meeting.CalendarEventID)); err != nil {
			slog.WarnContext(ctx, "failed to delete event index", logging.ErrKey, err,
				"calendar_event_id", meeting.CalendarEventID)
		}
	}

	return nil
}

// GetMeetingByBotID retrieves the meeting that owns the given bot ID.
func (r *NatsMeetingRepository) GetMeetingByBotID(ctx context.Context, botID string) (*models.Meeting, error) {
	meetingUID, err := r.GetIndexValue(ctx, r.botIndexKey(botID))
	if err != nil {
		return nil, err
	}
	return r.GetMeeting(ctx, meetingUID)
}

// GetMeetingByCalendarEventID retrieves the meeting referencing the given
// calendar event.
func (r *NatsMeetingRepository) GetMeetingByCalendarEventID(ctx context.Context, calendarEventID string) (*models.Meeting, error) {
	meetingUID, err := r.GetIndexValue(ctx, r.eventIndexKey(calendarEventID))
	if err != nil {
		return nil, err
	}
	return r.GetMeeting(ctx, meetingUID)
}

// SwapBotID replaces the meeting's bot ID, claims the new bot index, and
// drops the old one. Used when a vendor callback carries the real bot ID for
// a meeting still on its placeholder.
func (r *NatsMeetingRepository) SwapBotID(ctx context.Context, meeting *models.Meeting, revision uint64, newBotID string) error {
	if newBotID == "" {
		return domain.NewValidationError("new bot ID is required")
	}
	if meeting.BotID == newBotID {
		return nil
	}

	if err := r.CreateIndex(ctx, r.botIndexKey(newBotID), meeting.UID); err != nil {
		return err
	}

	oldBotID := meeting.BotID
	meeting.BotID = newBotID
	if err := r.UpdateMeeting(ctx, meeting, revision); err != nil {
		meeting.BotID = oldBotID
		if delErr := r.DeleteIndex(ctx, r.botIndexKey(newBotID)); delErr != nil {
			slog.WarnContext(ctx, "failed to roll back bot index after swap failure",
				logging.ErrKey, delErr, "bot_id", newBotID)
		}
		return err
	}

	if oldBotID != "" {
		if err := r.DeleteIndex(ctx, r.botIndexKey(oldBotID)); err != nil {
			slog.WarnContext(ctx, "failed to delete old bot index after swap",
				logging.ErrKey, err, "bot_id", oldBotID)
		}
	}

	return nil
}

// ListMeetingsByUser lists all meetings owned by the given user.
func (r *NatsMeetingRepository) ListMeetingsByUser(ctx context.Context, userID string) ([]*models.Meeting, error) {
	meetings, err := r.ListAllMeetings(ctx)
	if err != nil {
		return nil, err
	}

	owned := []*models.Meeting{}
	for _, meeting := range meetings {
		if meeting.UserID == userID {
			owned = append(owned, meeting)
		}
	}

	return owned, nil
}

// ListAllMeetings lists every meeting record in the bucket.
func (r *NatsMeetingRepository) ListAllMeetings(ctx context.Context) ([]*models.Meeting, error) {
	return r.ListEntities(ctx, fmt.Sprintf("%s/", KeyPrefixMeeting))
}
