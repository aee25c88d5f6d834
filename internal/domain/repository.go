// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error)
	GetMeetingWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error)
	UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error
	DeleteMeeting(ctx context.Context, meetingUID string, revision uint64) error

	// Lookups along the reconciliation chain
	GetMeetingByBotID(ctx context.Context, botID string) (*models.Meeting, error)
	GetMeetingByCalendarEventID(ctx context.Context, calendarEventID string) (*models.Meeting, error)

	// SwapBotID replaces the meeting's bot ID and moves the bot index key from
	// the old identifier to the new one.
	SwapBotID(ctx context.Context, meeting *models.Meeting, revision uint64, newBotID string) error

	// Bulk operations
	ListMeetingsByUser(ctx context.Context, userID string) ([]*models.Meeting, error)
	ListAllMeetings(ctx context.Context) ([]*models.Meeting, error)
}

// CalendarEventRepository defines the interface for the cached calendar event
// storage operations.
type CalendarEventRepository interface {
	UpsertEvent(ctx context.Context, event *models.CalendarEvent) error
	GetEvent(ctx context.Context, eventID string) (*models.CalendarEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListEventsByCalendar(ctx context.Context, calendarID string) ([]*models.CalendarEvent, error)
	DeleteEventsByCalendar(ctx context.Context, calendarID string) error
}

// CalendarAccountRepository defines the interface for calendar account
// storage operations.
type CalendarAccountRepository interface {
	CreateAccount(ctx context.Context, account *models.CalendarAccount) error
	GetAccount(ctx context.Context, accountUID string) (*models.CalendarAccount, error)
	GetAccountWithRevision(ctx context.Context, accountUID string) (*models.CalendarAccount, uint64, error)
	UpdateAccount(ctx context.Context, account *models.CalendarAccount, revision uint64) error
	GetAccountByCalendarID(ctx context.Context, calendarID string) (*models.CalendarAccount, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]*models.CalendarAccount, error)
}

// TranscriptRepository defines the interface for transcript and diarization
// storage operations. Both artifacts are replaced wholesale on ingestion.
type TranscriptRepository interface {
	UpsertTranscript(ctx context.Context, transcript *models.Transcript) error
	GetTranscript(ctx context.Context, meetingUID string) (*models.Transcript, error)
	UpsertDiarization(ctx context.Context, diarization *models.Diarization) error
	GetDiarization(ctx context.Context, meetingUID string) (*models.Diarization, error)
}

// SummaryRepository defines the interface for summary and action item storage
// operations.
type SummaryRepository interface {
	UpsertSummary(ctx context.Context, summary *models.Summary) error
	GetSummary(ctx context.Context, meetingUID string) (*models.Summary, error)
	ReplaceActionItems(ctx context.Context, items *models.ActionItemList) error
	GetActionItems(ctx context.Context, meetingUID string) (*models.ActionItemList, error)
}
