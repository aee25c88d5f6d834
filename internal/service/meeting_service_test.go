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

func TestCreatePlaceholderMeeting(t *testing.T) {
	start := time.Now().Add(time.Hour)

	t.Run("creates a placeholder record", func(t *testing.T) {
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "pending-evt-1" &&
				m.UserID == "user-1" &&
				m.Status == models.BotStatusScheduled &&
				m.ProcessingStatus == models.ProcessingStatusPending &&
				m.Correlation != nil && m.Correlation.EventID == "evt-1"
		})).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, err := svc.CreatePlaceholderMeeting(context.Background(), "user-1", &models.CalendarEvent{
			EventID:    "evt-1",
			CalendarID: "cal-1",
			Title:      "Weekly Sync",
			MeetingURL: "https://zoom.us/j/123",
			StartTime:  &start,
		})

		require.NoError(t, err)
		assert.True(t, meeting.HasPlaceholderBotID())
		repo.AssertExpectations(t)
	})

	t.Run("created even when the vendor flags the bot as scheduled", func(t *testing.T) {
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-2").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("CreateMeeting", mock.Anything, mock.Anything).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, err := svc.CreatePlaceholderMeeting(context.Background(), "user-1", &models.CalendarEvent{
			EventID:      "evt-2",
			BotScheduled: true,
			StartTime:    &start,
		})

		require.NoError(t, err)
		assert.Equal(t, "pending-evt-2", meeting.BotID)
		repo.AssertExpectations(t)
	})

	t.Run("returns the existing meeting instead of duplicating", func(t *testing.T) {
		existing := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", CalendarEventID: "evt-1"}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(existing, nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, err := svc.CreatePlaceholderMeeting(context.Background(), "user-1", &models.CalendarEvent{EventID: "evt-1"})

		require.NoError(t, err)
		assert.Equal(t, existing.UID, meeting.UID)
		repo.AssertNotCalled(t, "CreateMeeting", mock.Anything, mock.Anything)
	})

	t.Run("rejects a missing owner", func(t *testing.T) {
		svc := NewMeetingService(&mocks.MockMeetingRepository{}, ServiceConfig{})
		_, err := svc.CreatePlaceholderMeeting(context.Background(), "", &models.CalendarEvent{EventID: "evt-1"})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeAttribution, domain.GetErrorType(err))
	})
}

func TestReconcileBotCompleted(t *testing.T) {
	payload := &models.BotCompletedPayload{
		BotID:           "bot-1",
		Transcription:   "https://cdn.example.com/transcript.json",
		MP4:             "https://cdn.example.com/recording.mp4",
		Diarization:     "https://cdn.example.com/diarization.jsonl",
		DurationSeconds: 1800,
		Participants:    []models.ParticipantEntry{{Name: "Alice", IsHost: true}},
	}

	t.Run("applies completion to an existing meeting", func(t *testing.T) {
		existing := &models.Meeting{UID: "meeting-1", BotID: "bot-1", UserID: "user-1", Status: models.BotStatusInCallRecording, ProcessingStatus: models.ProcessingStatusPending}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(existing, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(existing, uint64(3), nil)
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.BotStatusCompleted &&
				m.ProcessingStatus == models.ProcessingStatusProcessing &&
				m.VideoURL == payload.MP4 &&
				m.TranscriptURL == payload.Transcription &&
				m.DurationSeconds == 1800 &&
				len(m.Participants) == 1
		}), uint64(3)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, applied, err := svc.ReconcileBotCompleted(context.Background(), "user-1", payload)

		require.NoError(t, err)
		assert.True(t, applied)
		require.NotNil(t, meeting.CompletedAt)
		repo.AssertExpectations(t)
	})

	t.Run("swaps the placeholder bot ID onto the same record", func(t *testing.T) {
		placeholder := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", UserID: "user-1", CalendarEventID: "evt-1", Status: models.BotStatusScheduled, ProcessingStatus: models.ProcessingStatusPending}
		swapped := &models.Meeting{UID: "meeting-1", BotID: "bot-1", UserID: "user-1", CalendarEventID: "evt-1", Status: models.BotStatusScheduled, ProcessingStatus: models.ProcessingStatusPending}

		withEventID := *payload
		withEventID.EventID = "evt-1"

		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(placeholder, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(placeholder, uint64(1), nil).Once()
		repo.On("SwapBotID", mock.Anything, placeholder, uint64(1), "bot-1").Return(nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(swapped, uint64(2), nil).Once()
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-1" && m.Status == models.BotStatusCompleted
		}), uint64(2)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, applied, err := svc.ReconcileBotCompleted(context.Background(), "user-1", &withEventID)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, "bot-1", meeting.BotID)
		repo.AssertExpectations(t)
	})

	t.Run("drops a duplicate delivery", func(t *testing.T) {
		completed := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusCompleted, ProcessingStatus: models.ProcessingStatusCompleted}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(completed, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(completed, uint64(5), nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, applied, err := svc.ReconcileBotCompleted(context.Background(), "user-1", payload)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, "meeting-1", meeting.UID)
		repo.AssertNotCalled(t, "UpdateMeeting", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creates a meeting when nothing matches", func(t *testing.T) {
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-1" && m.UserID == "user-1" && m.Status == models.BotStatusCompleted
		})).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		meeting, applied, err := svc.ReconcileBotCompleted(context.Background(), "user-1", payload)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, "bot-1", meeting.BotID)
		repo.AssertExpectations(t)
	})
}

func TestReconcileBotFailure(t *testing.T) {
	payload := &models.BotFailedPayload{
		BotID:        "bot-1",
		ErrorCode:    "BOT_NOT_ACCEPTED",
		ErrorMessage: "the host did not admit the bot",
	}

	t.Run("marks the meeting failed and preserves processing status", func(t *testing.T) {
		existing := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusJoiningCall, ProcessingStatus: models.ProcessingStatusPending}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(existing, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(existing, uint64(2), nil)
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.BotStatusFailed &&
				m.ErrorCode == "BOT_NOT_ACCEPTED" &&
				m.ProcessingStatus == models.ProcessingStatusPending
		}), uint64(2)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.ReconcileBotFailure(context.Background(), "user-1", payload))
		repo.AssertExpectations(t)
	})

	t.Run("creates a failed record when no meeting exists", func(t *testing.T) {
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-1" && m.Status == models.BotStatusFailed && m.ErrorCode == "BOT_NOT_ACCEPTED"
		})).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.ReconcileBotFailure(context.Background(), "user-1", payload))
		repo.AssertExpectations(t)
	})

	t.Run("fails a scheduler-seeded placeholder through the correlation", func(t *testing.T) {
		placeholder := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", UserID: "user-1", CalendarEventID: "evt-1", Status: models.BotStatusScheduled}
		swapped := &models.Meeting{UID: "meeting-1", BotID: "bot-real", UserID: "user-1", CalendarEventID: "evt-1", Status: models.BotStatusScheduled}
		withExtra := &models.BotFailedPayload{
			BotID:        "bot-real",
			ErrorCode:    "BOT_NOT_ACCEPTED",
			ErrorMessage: "the host did not admit the bot",
			Extra:        map[string]any{"user_id": "user-1", "event_id": "evt-1"},
		}

		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-real").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(placeholder, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(placeholder, uint64(1), nil).Once()
		repo.On("SwapBotID", mock.Anything, placeholder, uint64(1), "bot-real").Return(nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(swapped, uint64(2), nil).Once()
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-real" &&
				m.CalendarEventID == "evt-1" &&
				m.Status == models.BotStatusFailed &&
				m.ErrorCode == "BOT_NOT_ACCEPTED"
		}), uint64(2)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.ReconcileBotFailure(context.Background(), "user-1", withExtra))
		repo.AssertNotCalled(t, "CreateMeeting", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("fallback record carries the correlation event reference", func(t *testing.T) {
		withExtra := &models.BotFailedPayload{
			BotID:     "bot-real",
			ErrorCode: "BOT_NOT_ACCEPTED",
			Extra:     map[string]any{"user_id": "user-1", "event_id": "evt-1"},
		}

		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-real").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("CreateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-real" &&
				m.CalendarEventID == "evt-1" &&
				m.Status == models.BotStatusFailed
		})).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.ReconcileBotFailure(context.Background(), "user-1", withExtra))
		repo.AssertExpectations(t)
	})

	t.Run("ignores a failure for a terminal meeting", func(t *testing.T) {
		completed := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusCompleted}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(completed, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(completed, uint64(4), nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.ReconcileBotFailure(context.Background(), "user-1", payload))
		repo.AssertNotCalled(t, "UpdateMeeting", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateBotStatus(t *testing.T) {
	t.Run("applies a forward transition", func(t *testing.T) {
		existing := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusQueued}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(existing, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(existing, uint64(1), nil)
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.BotStatusInCallRecording
		}), uint64(1)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.UpdateBotStatus(context.Background(), "bot-1", models.BotStatusInCallRecording, nil))
		repo.AssertExpectations(t)
	})

	t.Run("reaches a placeholder meeting through the correlation", func(t *testing.T) {
		placeholder := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", CalendarEventID: "evt-1", Status: models.BotStatusScheduled}
		swapped := &models.Meeting{UID: "meeting-1", BotID: "bot-real", CalendarEventID: "evt-1", Status: models.BotStatusScheduled}

		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-real").
			Return(nil, domain.NewNotFoundError("meeting not found"))
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(placeholder, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(placeholder, uint64(1), nil).Once()
		repo.On("SwapBotID", mock.Anything, placeholder, uint64(1), "bot-real").Return(nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(swapped, uint64(2), nil).Once()
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.BotID == "bot-real" && m.Status == models.BotStatusJoiningCall
		}), uint64(2)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		correlation := models.NewCorrelation("user-1", "cal-1", "evt-1")
		require.NoError(t, svc.UpdateBotStatus(context.Background(), "bot-real", models.BotStatusJoiningCall, correlation))
		repo.AssertExpectations(t)
	})

	t.Run("drops a stale transition", func(t *testing.T) {
		existing := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusTranscribing}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByBotID", mock.Anything, "bot-1").Return(existing, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(existing, uint64(1), nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.UpdateBotStatus(context.Background(), "bot-1", models.BotStatusJoiningCall, nil))
		repo.AssertNotCalled(t, "UpdateMeeting", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		svc := NewMeetingService(&mocks.MockMeetingRepository{}, ServiceConfig{})
		err := svc.UpdateBotStatus(context.Background(), "bot-1", models.BotStatus("warming_up"), nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestMarkEventCancelled(t *testing.T) {
	t.Run("fails a placeholder meeting", func(t *testing.T) {
		placeholder := &models.Meeting{UID: "meeting-1", BotID: "pending-evt-1", Status: models.BotStatusScheduled}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(placeholder, nil)
		repo.On("GetMeetingWithRevision", mock.Anything, "meeting-1").Return(placeholder, uint64(1), nil)
		repo.On("UpdateMeeting", mock.Anything, mock.MatchedBy(func(m *models.Meeting) bool {
			return m.Status == models.BotStatusFailed && m.ErrorCode == "EVENT_CANCELLED"
		}), uint64(1)).Return(nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.MarkEventCancelled(context.Background(), "evt-1"))
		repo.AssertExpectations(t)
	})

	t.Run("leaves a meeting with a real bot untouched", func(t *testing.T) {
		real := &models.Meeting{UID: "meeting-1", BotID: "bot-1", Status: models.BotStatusInCallRecording}
		repo := &mocks.MockMeetingRepository{}
		repo.On("GetMeetingByCalendarEventID", mock.Anything, "evt-1").Return(real, nil)

		svc := NewMeetingService(repo, ServiceConfig{})
		require.NoError(t, svc.MarkEventCancelled(context.Background(), "evt-1"))
		repo.AssertNotCalled(t, "UpdateMeeting", mock.Anything, mock.Anything, mock.Anything)
	})
}
