// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     BotStatus
		to       BotStatus
		expected bool
	}{
		{
			name:     "scheduled to queued advances",
			from:     BotStatusScheduled,
			to:       BotStatusQueued,
			expected: true,
		},
		{
			name:     "in call recording to transcribing advances",
			from:     BotStatusInCallRecording,
			to:       BotStatusTranscribing,
			expected: true,
		},
		{
			name:     "pause and resume may alternate",
			from:     BotStatusRecordingPaused,
			to:       BotStatusRecordingResumed,
			expected: true,
		},
		{
			name:     "resume back to pause is allowed",
			from:     BotStatusRecordingResumed,
			to:       BotStatusRecordingPaused,
			expected: true,
		},
		{
			name:     "stale joining_call after transcribing is dropped",
			from:     BotStatusTranscribing,
			to:       BotStatusJoiningCall,
			expected: false,
		},
		{
			name:     "completed never regresses",
			from:     BotStatusCompleted,
			to:       BotStatusInCallRecording,
			expected: false,
		},
		{
			name:     "failed never regresses",
			from:     BotStatusFailed,
			to:       BotStatusCompleted,
			expected: false,
		},
		{
			name:     "any in-progress state may fail",
			from:     BotStatusInWaitingRoom,
			to:       BotStatusFailed,
			expected: true,
		},
		{
			name:     "same status is accepted for redeliveries",
			from:     BotStatusQueued,
			to:       BotStatusQueued,
			expected: true,
		},
		{
			name:     "unknown next status is rejected",
			from:     BotStatusQueued,
			to:       BotStatus("exploded"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestProcessingStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     ProcessingStatus
		to       ProcessingStatus
		expected bool
	}{
		{
			name:     "pending to processing advances",
			from:     ProcessingStatusPending,
			to:       ProcessingStatusProcessing,
			expected: true,
		},
		{
			name:     "processing to completed advances",
			from:     ProcessingStatusProcessing,
			to:       ProcessingStatusCompleted,
			expected: true,
		},
		{
			name:     "completed never goes back to processing",
			from:     ProcessingStatusCompleted,
			to:       ProcessingStatusProcessing,
			expected: false,
		},
		{
			name:     "replayed pending does not regress processing",
			from:     ProcessingStatusProcessing,
			to:       ProcessingStatusPending,
			expected: false,
		},
		{
			name:     "failed never flips to completed",
			from:     ProcessingStatusFailed,
			to:       ProcessingStatusCompleted,
			expected: false,
		},
		{
			name:     "completed never flips to failed",
			from:     ProcessingStatusCompleted,
			to:       ProcessingStatusFailed,
			expected: false,
		},
		{
			name:     "processing may still fail",
			from:     ProcessingStatusProcessing,
			to:       ProcessingStatusFailed,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPlaceholderBotID(t *testing.T) {
	placeholder := PlaceholderBotID("evt-123")
	assert.Equal(t, "pending-evt-123", placeholder)
	assert.True(t, IsPlaceholderBotID(placeholder))
	assert.False(t, IsPlaceholderBotID("bot-real-456"))

	meeting := &Meeting{BotID: placeholder}
	assert.True(t, meeting.HasPlaceholderBotID())

	meeting.BotID = "bot-real-456"
	assert.False(t, meeting.HasPlaceholderBotID())
}

func TestMeetingTags(t *testing.T) {
	meeting := &Meeting{
		UID:             "m1",
		BotID:           "b1",
		UserID:          "u1",
		CalendarEventID: "e1",
	}

	tags := meeting.Tags()
	assert.Contains(t, tags, "meeting_uid:m1")
	assert.Contains(t, tags, "bot_id:b1")
	assert.Contains(t, tags, "user_id:u1")
	assert.Contains(t, tags, "calendar_event_id:e1")

	var nilMeeting *Meeting
	assert.Empty(t, nilMeeting.Tags())
}
