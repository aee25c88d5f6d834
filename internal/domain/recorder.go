// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// Bot is the vendor's view of one recording bot job.
type Bot struct {
	ID         string           `json:"id"`
	Status     models.BotStatus `json:"status"`
	MeetingURL string           `json:"meeting_url,omitempty"`
	EventID    string           `json:"event_id,omitempty"`
}

// CreateBotRequest asks the vendor to join a meeting URL directly.
type CreateBotRequest struct {
	MeetingURL  string              `json:"meeting_url"`
	BotName     string              `json:"bot_name,omitempty"`
	Correlation *models.Correlation `json:"extra,omitempty"`
}

// ScheduleBotRequest asks the vendor to schedule a bot for a calendar event.
type ScheduleBotRequest struct {
	CalendarID     string              `json:"calendar_id"`
	EventID        string              `json:"event_id"`
	BotName        string              `json:"bot_name,omitempty"`
	AllOccurrences bool                `json:"all_occurrences,omitempty"`
	Correlation    *models.Correlation `json:"extra,omitempty"`
}

// Calendar is the vendor's view of one connected calendar.
type Calendar struct {
	ID       string `json:"id"`
	Provider string `json:"provider,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CreateCalendarRequest connects a calendar on the vendor side.
type CreateCalendarRequest struct {
	Provider     string `json:"provider"`
	Email        string `json:"email,omitempty"`
	RefreshToken string `json:"refresh_token"`
}

// RecorderClient is the outbound contract to the bot-automation and calendar
// vendor.
type RecorderClient interface {
	// Bot operations
	CreateBot(ctx context.Context, request *CreateBotRequest) (*Bot, error)
	GetBot(ctx context.Context, botID string) (*Bot, error)
	ListBots(ctx context.Context) ([]*Bot, error)
	LeaveCall(ctx context.Context, botID string) error
	DeleteBot(ctx context.Context, botID string) error
	RetryTranscription(ctx context.Context, botID string) error

	// Calendar operations
	CreateCalendar(ctx context.Context, request *CreateCalendarRequest) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]*Calendar, error)
	ListCalendarEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*models.CalendarEvent, error)
	ScheduleBot(ctx context.Context, request *ScheduleBotRequest) (*Bot, error)
	DeleteCalendar(ctx context.Context, calendarID string) error
}

// ArtifactDownloader fetches recording artifacts (transcripts, diarization
// documents) from vendor-issued URLs.
type ArtifactDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}
