// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"strings"
	"time"
)

// BotStatus is the recording bot status as reported by the vendor.
type BotStatus string

const (
	BotStatusScheduled          BotStatus = "scheduled"
	BotStatusQueued             BotStatus = "queued"
	BotStatusJoiningCall        BotStatus = "joining_call"
	BotStatusInWaitingRoom      BotStatus = "in_waiting_room"
	BotStatusInCallNotRecording BotStatus = "in_call_not_recording"
	BotStatusInCallRecording    BotStatus = "in_call_recording"
	BotStatusRecordingPaused    BotStatus = "recording_paused"
	BotStatusRecordingResumed   BotStatus = "recording_resumed"
	BotStatusTranscribing       BotStatus = "transcribing"
	BotStatusCompleted          BotStatus = "completed"
	BotStatusFailed             BotStatus = "failed"
)

// botStatusRank orders vendor statuses for the monotonicity guard on
// out-of-order webhook deliveries. The pause/resume pair shares a rank so the
// two may alternate while a call is in progress.
var botStatusRank = map[BotStatus]int{
	BotStatusScheduled:          1,
	BotStatusQueued:             2,
	BotStatusJoiningCall:        3,
	BotStatusInWaitingRoom:      4,
	BotStatusInCallNotRecording: 5,
	BotStatusInCallRecording:    6,
	BotStatusRecordingPaused:    6,
	BotStatusRecordingResumed:   6,
	BotStatusTranscribing:       7,
	BotStatusCompleted:          8,
	BotStatusFailed:             9,
}

// IsValid reports whether the status is one the vendor is known to send.
func (s BotStatus) IsValid() bool {
	_, ok := botStatusRank[s]
	return ok
}

// IsTerminal reports whether the status is a terminal state.
func (s BotStatus) IsTerminal() bool {
	return s == BotStatusCompleted || s == BotStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Terminal states never regress, and a status with a lower rank
// than the current one is considered a stale redelivery.
func (s BotStatus) CanTransitionTo(next BotStatus) bool {
	if s.IsTerminal() {
		return false
	}
	curRank, ok := botStatusRank[s]
	if !ok {
		return next.IsValid()
	}
	nextRank, ok := botStatusRank[next]
	if !ok {
		return false
	}
	return nextRank >= curRank
}

// ProcessingStatus tracks artifact ingestion progress, independently of the
// vendor-reported recording status.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusFailed     ProcessingStatus = "failed"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
)

// processingStatusRank orders the pipeline states. The two terminal states
// share a rank so neither can overwrite the other.
var processingStatusRank = map[ProcessingStatus]int{
	ProcessingStatusPending:    1,
	ProcessingStatusProcessing: 2,
	ProcessingStatusFailed:     3,
	ProcessingStatusCompleted:  3,
}

// CanTransitionTo reports whether moving from s to next advances the
// processing pipeline. Replayed events never regress it.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	curRank, ok := processingStatusRank[s]
	if !ok {
		return true
	}
	nextRank, ok := processingStatusRank[next]
	if !ok {
		return false
	}
	return nextRank > curRank
}

// CorrelationVersion is the current version of the Correlation structure.
const CorrelationVersion = 1

// Correlation is the context attached to a bot at scheduling time and echoed
// back by the vendor on later callbacks. It is the last-resort lookup key for
// recovering the owning user, calendar, and event of a webhook.
type Correlation struct {
	Version    int    `json:"version"`
	UserID     string `json:"user_id,omitempty"`
	CalendarID string `json:"calendar_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
}

// NewCorrelation builds a correlation payload at the current version.
func NewCorrelation(userID, calendarID, eventID string) *Correlation {
	return &Correlation{
		Version:    CorrelationVersion,
		UserID:     userID,
		CalendarID: calendarID,
		EventID:    eventID,
	}
}

// Participant is a meeting attendee reported by the vendor on completion.
type Participant struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	IsHost bool   `json:"is_host,omitempty"`
}

// Meeting is the durable record of one recording bot job. It is created
// either by a calendar notification (with a placeholder bot ID) or by the
// first vendor callback that mentions the bot.
type Meeting struct {
	UID              string           `json:"uid"`
	UserID           string           `json:"user_id"`
	BotID            string           `json:"bot_id"`
	CalendarID       string           `json:"calendar_id,omitempty"`
	CalendarEventID  string           `json:"calendar_event_id,omitempty"`
	Correlation      *Correlation     `json:"correlation,omitempty"`
	Status           BotStatus        `json:"status"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	Title            string           `json:"title,omitempty"`
	MeetingURL       string           `json:"meeting_url,omitempty"`
	StartTime        *time.Time       `json:"start_time,omitempty"`
	EndTime          *time.Time       `json:"end_time,omitempty"`
	DurationSeconds  int              `json:"duration_seconds,omitempty"`
	VideoURL         string           `json:"video_url,omitempty"`
	AudioURL         string           `json:"audio_url,omitempty"`
	TranscriptURL    string           `json:"transcript_url,omitempty"`
	DiarizationURL   string           `json:"diarization_url,omitempty"`
	ErrorCode        string           `json:"error_code,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	Participants     []Participant    `json:"participants,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// placeholderBotIDPrefix prefixes the synthetic bot ID assigned to a meeting
// observed via a calendar notification before the vendor issues a real one.
const placeholderBotIDPrefix = "pending-"

// PlaceholderBotID returns the synthetic bot ID for a calendar event.
func PlaceholderBotID(calendarEventID string) string {
	return placeholderBotIDPrefix + calendarEventID
}

// IsPlaceholderBotID reports whether the given bot ID is a synthetic
// placeholder rather than a vendor-issued identifier.
func IsPlaceholderBotID(botID string) bool {
	return strings.HasPrefix(botID, placeholderBotIDPrefix)
}

// HasPlaceholderBotID reports whether the meeting still awaits its
// vendor-issued bot ID.
func (m *Meeting) HasPlaceholderBotID() bool {
	return IsPlaceholderBotID(m.BotID)
}

// Tags generates a consistent set of log attributes for the meeting.
func (m *Meeting) Tags() []string {
	tags := []string{}

	if m == nil {
		return tags
	}

	if m.UID != "" {
		tags = append(tags, fmt.Sprintf("meeting_uid:%s", m.UID))
	}
	if m.BotID != "" {
		tags = append(tags, fmt.Sprintf("bot_id:%s", m.BotID))
	}
	if m.UserID != "" {
		tags = append(tags, fmt.Sprintf("user_id:%s", m.UserID))
	}
	if m.CalendarEventID != "" {
		tags = append(tags, fmt.Sprintf("calendar_event_id:%s", m.CalendarEventID))
	}

	return tags
}
