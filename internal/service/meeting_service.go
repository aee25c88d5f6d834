// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// MeetingService reconciles meeting records against the vendor's bot
// lifecycle events. All creations are upserts keyed by the bot ID (or its
// synthesized placeholder), so redeliveries never duplicate a meeting.
type MeetingService struct {
	meetingRepository domain.MeetingRepository
	config            ServiceConfig
}

// NewMeetingService creates a new MeetingService
func NewMeetingService(meetingRepository domain.MeetingRepository, config ServiceConfig) *MeetingService {
	return &MeetingService{
		meetingRepository: meetingRepository,
		config:            config,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *MeetingService) ServiceReady() bool {
	return s.meetingRepository != nil
}

// GetMeeting returns one meeting by UID.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	return s.meetingRepository.GetMeeting(ctx, meetingUID)
}

// ListMeetingsByUser returns the meetings owned by the given user.
func (s *MeetingService) ListMeetingsByUser(ctx context.Context, userID string) ([]*models.Meeting, error) {
	return s.meetingRepository.ListMeetingsByUser(ctx, userID)
}

// CreatePlaceholderMeeting seeds a meeting record from a calendar event. The
// record carries the synthesized placeholder bot ID until the vendor issues a
// real one; it is created even when the vendor already flags the event as
// bot-scheduled, because the real ID is not yet known and must be reconciled
// later.
func (s *MeetingService) CreatePlaceholderMeeting(ctx context.Context, userID string, event *models.CalendarEvent) (*models.Meeting, error) {
	if event == nil || event.EventID == "" {
		return nil, domain.NewValidationError("calendar event ID is required")
	}
	if userID == "" {
		return nil, domain.NewAttributionError("meeting owner is required")
	}

	if existing, err := s.meetingRepository.GetMeetingByCalendarEventID(ctx, event.EventID); err == nil {
		slog.DebugContext(ctx, "meeting already exists for calendar event",
			"meeting_uid", existing.UID,
			"calendar_event_id", event.EventID,
		)
		return existing, nil
	}

	now := time.Now().UTC()
	meeting := &models.Meeting{
		UID:              uuid.New().String(),
		UserID:           userID,
		BotID:            models.PlaceholderBotID(event.EventID),
		CalendarID:       event.CalendarID,
		CalendarEventID:  event.EventID,
		Correlation:      models.NewCorrelation(userID, event.CalendarID, event.EventID),
		Status:           models.BotStatusScheduled,
		ProcessingStatus: models.ProcessingStatusPending,
		Title:            event.Title,
		MeetingURL:       event.MeetingURL,
		StartTime:        event.StartTime,
		EndTime:          event.EndTime,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.meetingRepository.CreateMeeting(ctx, meeting); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			// A concurrent delivery won the race; the existing record wins.
			if existing, getErr := s.meetingRepository.GetMeetingByBotID(ctx, meeting.BotID); getErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	slog.InfoContext(ctx, "created placeholder meeting",
		"meeting_uid", meeting.UID,
		"bot_id", meeting.BotID,
		"calendar_event_id", event.EventID,
	)
	return meeting, nil
}

// UpdateBotStatus applies a vendor status change to the meeting owning the
// bot. The correlation hint lets the first status event reach a meeting still
// waiting under its placeholder bot ID. Stale or regressive transitions are
// logged and dropped.
func (s *MeetingService) UpdateBotStatus(ctx context.Context, botID string, status models.BotStatus, correlation *models.Correlation) error {
	if !status.IsValid() {
		return domain.NewValidationError("unrecognized bot status: " + string(status))
	}

	meeting, revision, err := s.resolveMeetingForBot(ctx, botID, "", correlation)
	if err != nil {
		return err
	}

	if !meeting.Status.CanTransitionTo(status) {
		slog.WarnContext(ctx, "dropping stale bot status transition",
			"meeting_uid", meeting.UID,
			"bot_id", botID,
			"current_status", meeting.Status,
			"reported_status", status,
		)
		return nil
	}

	meeting.Status = status
	meeting.UpdatedAt = time.Now().UTC()
	return s.meetingRepository.UpdateMeeting(ctx, meeting, revision)
}

// ReconcileBotFailure marks the meeting owning the bot as failed and stores
// the vendor-supplied error. The lookup walks the same chain as completions,
// so a placeholder seeded by the scheduler is failed in place rather than
// orphaned. The processing status is left untouched. When no meeting exists
// yet, one is created so the failure is not lost.
func (s *MeetingService) ReconcileBotFailure(ctx context.Context, userID string, payload *models.BotFailedPayload) error {
	meeting, revision, err := s.resolveMeetingForBot(ctx, payload.BotID, payload.EventID, payload.Correlation())
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return err
		}
		return s.createFailedMeeting(ctx, userID, payload)
	}

	if !meeting.Status.CanTransitionTo(models.BotStatusFailed) {
		slog.WarnContext(ctx, "dropping bot failure for terminal meeting",
			"meeting_uid", meeting.UID,
			"current_status", meeting.Status,
		)
		return nil
	}

	meeting.Status = models.BotStatusFailed
	meeting.ErrorCode = payload.ErrorCode
	meeting.ErrorMessage = payload.ErrorMessage
	meeting.UpdatedAt = time.Now().UTC()

	if err := s.meetingRepository.UpdateMeeting(ctx, meeting, revision); err != nil {
		return err
	}

	slog.InfoContext(ctx, "recorded bot failure",
		"meeting_uid", meeting.UID,
		"bot_id", payload.BotID,
		"error_code", payload.ErrorCode,
	)
	return nil
}

func (s *MeetingService) createFailedMeeting(ctx context.Context, userID string, payload *models.BotFailedPayload) error {
	eventID := payload.EventID
	correlation := payload.Correlation()
	if eventID == "" && correlation != nil {
		eventID = correlation.EventID
	}

	now := time.Now().UTC()
	meeting := &models.Meeting{
		UID:              uuid.New().String(),
		UserID:           userID,
		BotID:            payload.BotID,
		CalendarEventID:  eventID,
		Correlation:      correlation,
		Status:           models.BotStatusFailed,
		ProcessingStatus: models.ProcessingStatusPending,
		ErrorCode:        payload.ErrorCode,
		ErrorMessage:     payload.ErrorMessage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.meetingRepository.CreateMeeting(ctx, meeting)
	if err != nil && domain.GetErrorType(err) == domain.ErrorTypeConflict {
		// A concurrent delivery created it first; nothing left to record.
		return nil
	}
	return err
}

// ReconcileBotCompleted finds or creates the meeting for a completed bot and
// applies the completion payload. The lookup chain is tried in strict order:
// bot ID, then calendar event reference, then correlation event ID, and only
// then fallback creation. A meeting found under its placeholder bot ID has
// the vendor-issued ID swapped onto the same record.
//
// The returned bool reports whether the completion was applied; a false value
// means a duplicate delivery was dropped by the monotonicity guard.
func (s *MeetingService) ReconcileBotCompleted(ctx context.Context, userID string, payload *models.BotCompletedPayload) (*models.Meeting, bool, error) {
	meeting, revision, err := s.resolveMeetingForBot(ctx, payload.BotID, payload.EventID, payload.Correlation())
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, false, err
		}
		meeting, err = s.createCompletedMeeting(ctx, userID, payload)
		if err != nil {
			return nil, false, err
		}
		return meeting, true, nil
	}

	if !meeting.Status.CanTransitionTo(models.BotStatusCompleted) {
		slog.WarnContext(ctx, "dropping duplicate bot completion",
			"meeting_uid", meeting.UID,
			"current_status", meeting.Status,
		)
		return meeting, false, nil
	}

	s.applyCompletion(meeting, payload)
	if err := s.meetingRepository.UpdateMeeting(ctx, meeting, revision); err != nil {
		return nil, false, err
	}

	slog.InfoContext(ctx, "recorded bot completion",
		"meeting_uid", meeting.UID,
		"bot_id", meeting.BotID,
	)
	return meeting, true, nil
}

// resolveMeetingForBot walks the bot event lookup chain in strict order: bot
// ID, then calendar event reference, then correlation event ID. Stopping at
// the first match reuses an earlier placeholder record instead of duplicating
// it. A meeting found under its placeholder bot ID has the vendor-issued ID
// swapped onto the same record before it is returned.
func (s *MeetingService) resolveMeetingForBot(ctx context.Context, botID, eventID string, correlation *models.Correlation) (*models.Meeting, uint64, error) {
	meeting, err := s.meetingRepository.GetMeetingByBotID(ctx, botID)
	if err != nil && domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		return nil, 0, err
	}

	if meeting == nil && eventID != "" {
		meeting, err = s.meetingRepository.GetMeetingByCalendarEventID(ctx, eventID)
		if err != nil && domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, 0, err
		}
	}

	if meeting == nil && correlation != nil && correlation.EventID != "" && correlation.EventID != eventID {
		meeting, err = s.meetingRepository.GetMeetingByCalendarEventID(ctx, correlation.EventID)
		if err != nil && domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, 0, err
		}
	}

	if meeting == nil {
		return nil, 0, domain.NewNotFoundError("no meeting found for bot")
	}

	meeting, revision, err := s.meetingRepository.GetMeetingWithRevision(ctx, meeting.UID)
	if err != nil {
		return nil, 0, err
	}

	if meeting.HasPlaceholderBotID() && !models.IsPlaceholderBotID(botID) {
		if err := s.meetingRepository.SwapBotID(ctx, meeting, revision, botID); err != nil {
			return nil, 0, err
		}
		meeting, revision, err = s.meetingRepository.GetMeetingWithRevision(ctx, meeting.UID)
		if err != nil {
			return nil, 0, err
		}
		slog.InfoContext(ctx, "swapped placeholder bot ID",
			"meeting_uid", meeting.UID,
			"bot_id", botID,
		)
	}

	return meeting, revision, nil
}

func (s *MeetingService) createCompletedMeeting(ctx context.Context, userID string, payload *models.BotCompletedPayload) (*models.Meeting, error) {
	eventID := payload.EventID
	correlation := payload.Correlation()
	if eventID == "" && correlation != nil {
		eventID = correlation.EventID
	}

	now := time.Now().UTC()
	meeting := &models.Meeting{
		UID:              uuid.New().String(),
		UserID:           userID,
		BotID:            payload.BotID,
		CalendarEventID:  eventID,
		Correlation:      correlation,
		Status:           models.BotStatusScheduled,
		ProcessingStatus: models.ProcessingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.applyCompletion(meeting, payload)

	if err := s.meetingRepository.CreateMeeting(ctx, meeting); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			if existing, getErr := s.meetingRepository.GetMeetingByBotID(ctx, payload.BotID); getErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	slog.InfoContext(ctx, "created meeting from bot completion",
		"meeting_uid", meeting.UID,
		"bot_id", payload.BotID,
	)
	return meeting, nil
}

// applyCompletion copies the completion payload onto the meeting record.
func (s *MeetingService) applyCompletion(meeting *models.Meeting, payload *models.BotCompletedPayload) {
	now := time.Now().UTC()
	meeting.Status = models.BotStatusCompleted
	if meeting.ProcessingStatus.CanTransitionTo(models.ProcessingStatusProcessing) {
		meeting.ProcessingStatus = models.ProcessingStatusProcessing
	}
	meeting.DurationSeconds = payload.DurationSeconds
	meeting.VideoURL = payload.VideoURL()
	meeting.AudioURL = payload.Audio
	meeting.TranscriptURL = payload.TranscriptURL()
	meeting.DiarizationURL = payload.Diarization
	meeting.Participants = convertParticipants(payload.Participants)
	meeting.CompletedAt = &now
	meeting.UpdatedAt = now
	if meeting.Correlation == nil {
		meeting.Correlation = payload.Correlation()
	}
}

// UpdateProcessingStatus advances the artifact processing status of a
// meeting. Regressions are logged and dropped.
func (s *MeetingService) UpdateProcessingStatus(ctx context.Context, meetingUID string, status models.ProcessingStatus) error {
	meeting, revision, err := s.meetingRepository.GetMeetingWithRevision(ctx, meetingUID)
	if err != nil {
		return err
	}

	if !meeting.ProcessingStatus.CanTransitionTo(status) {
		slog.WarnContext(ctx, "dropping processing status regression",
			"meeting_uid", meetingUID,
			"current_status", meeting.ProcessingStatus,
			"reported_status", status,
		)
		return nil
	}

	meeting.ProcessingStatus = status
	meeting.UpdatedAt = time.Now().UTC()
	if err := s.meetingRepository.UpdateMeeting(ctx, meeting, revision); err != nil {
		slog.ErrorContext(ctx, "failed to update processing status",
			"meeting_uid", meetingUID,
			logging.ErrKey, err)
		return err
	}
	return nil
}

// MarkEventCancelled marks a meeting still on its placeholder bot ID as
// failed because its calendar event was cancelled before the vendor issued a
// real bot.
func (s *MeetingService) MarkEventCancelled(ctx context.Context, calendarEventID string) error {
	meeting, err := s.meetingRepository.GetMeetingByCalendarEventID(ctx, calendarEventID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil
		}
		return err
	}
	if !meeting.HasPlaceholderBotID() {
		// A real bot exists; its lifecycle events decide the outcome.
		return nil
	}

	meeting, revision, err := s.meetingRepository.GetMeetingWithRevision(ctx, meeting.UID)
	if err != nil {
		return err
	}
	if !meeting.Status.CanTransitionTo(models.BotStatusFailed) {
		return nil
	}

	meeting.Status = models.BotStatusFailed
	meeting.ErrorCode = "EVENT_CANCELLED"
	meeting.UpdatedAt = time.Now().UTC()
	return s.meetingRepository.UpdateMeeting(ctx, meeting, revision)
}

func convertParticipants(entries []models.ParticipantEntry) []models.Participant {
	if len(entries) == 0 {
		return nil
	}
	participants := make([]models.Participant, 0, len(entries))
	for _, entry := range entries {
		participants = append(participants, models.Participant{
			Name:   entry.Name,
			Email:  entry.Email,
			IsHost: entry.IsHost,
		})
	}
	return participants
}
