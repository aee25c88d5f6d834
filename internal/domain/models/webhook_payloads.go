// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/utils"
)

// Recognized webhook event types.
const (
	// Bot lifecycle events from the recording vendor.
	WebhookEventBotCompleted    = "bot.completed"
	WebhookEventBotFailed       = "bot.failed"
	WebhookEventBotStatusChange = "bot.status_change"

	// Calendar lifecycle events from the calendar vendor.
	WebhookEventConnectionCreated = "calendar.connection_created"
	WebhookEventConnectionUpdated = "calendar.connection_updated"
	WebhookEventConnectionDeleted = "calendar.connection_deleted"
	WebhookEventConnectionError   = "calendar.connection_error"
	WebhookEventEventsSynced      = "calendar.events_synced"
	WebhookEventEventCreated      = "calendar.event_created"
	WebhookEventEventUpdated      = "calendar.event_updated"
	WebhookEventEventCancelled    = "calendar.event_cancelled"
)

// WebhookEvent is the inbound envelope posted by the vendors.
type WebhookEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// decodePayload converts the untyped envelope data into a typed per-event
// payload. Decoding happens once at the boundary; everything downstream works
// with the typed form.
func decodePayload[T any](data map[string]any) (*T, error) {
	var payload T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		TagName:    "json",
		Result:     &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("creating payload decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &payload, nil
}

// ParticipantEntry is one attendee in a bot.completed payload.
type ParticipantEntry struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	IsHost bool   `json:"is_host"`
}

// BotCompletedPayload is the payload for bot.completed webhook events.
type BotCompletedPayload struct {
	BotID            string             `json:"bot_id"`
	Transcription    string             `json:"transcription"`
	RawTranscription string             `json:"raw_transcription"`
	MP4              string             `json:"mp4"`
	Video            string             `json:"video"`
	Audio            string             `json:"audio"`
	Diarization      string             `json:"diarization"`
	DurationSeconds  int                `json:"duration_seconds"`
	Participants     []ParticipantEntry `json:"participants"`
	Extra            map[string]any     `json:"extra"`
	EventID          string             `json:"event_id"`
}

// Validate checks the required fields of the payload.
func (p *BotCompletedPayload) Validate() error {
	if p.BotID == "" {
		return fmt.Errorf("bot.completed payload missing bot_id")
	}
	return nil
}

// VideoURL returns the canonical recording URL. The vendor has historically
// sent the URL under either "mp4" or "video"; this is the compatibility shim
// that normalizes the two at the boundary.
func (p *BotCompletedPayload) VideoURL() string {
	return utils.CoalesceString(p.MP4, p.Video)
}

// TranscriptURL returns the transcript artifact URL, preferring the processed
// transcription over the raw one.
func (p *BotCompletedPayload) TranscriptURL() string {
	return utils.CoalesceString(p.Transcription, p.RawTranscription)
}

// Correlation decodes the echoed correlation blob, if any. Payloads scheduled
// by this service carry the versioned structure; anything else is treated as
// hint fields of unknown provenance.
func (p *BotCompletedPayload) Correlation() *Correlation {
	return correlationFromExtra(p.Extra)
}

// BotFailedPayload is the payload for bot.failed webhook events.
type BotFailedPayload struct {
	BotID        string         `json:"bot_id"`
	ErrorCode    string         `json:"error_code"`
	ErrorMessage string         `json:"error_message"`
	Extra        map[string]any `json:"extra"`
	EventID      string         `json:"event_id"`
}

// Validate checks the required fields of the payload.
func (p *BotFailedPayload) Validate() error {
	if p.BotID == "" {
		return fmt.Errorf("bot.failed payload missing bot_id")
	}
	if p.ErrorCode == "" {
		return fmt.Errorf("bot.failed payload missing error_code")
	}
	return nil
}

// Correlation decodes the echoed correlation blob, if any.
func (p *BotFailedPayload) Correlation() *Correlation {
	return correlationFromExtra(p.Extra)
}

// BotStatusChangePayload is the payload for bot.status_change webhook events.
type BotStatusChangePayload struct {
	BotID  string `json:"bot_id"`
	Status struct {
		Code      string    `json:"code"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"status"`
	Extra map[string]any `json:"extra"`
}

// Validate checks the required fields of the payload.
func (p *BotStatusChangePayload) Validate() error {
	if p.BotID == "" {
		return fmt.Errorf("bot.status_change payload missing bot_id")
	}
	if p.Status.Code == "" {
		return fmt.Errorf("bot.status_change payload missing status.code")
	}
	if p.Status.CreatedAt.IsZero() {
		return fmt.Errorf("bot.status_change payload missing status.created_at")
	}
	return nil
}

// Correlation decodes the echoed correlation blob, if any.
func (p *BotStatusChangePayload) Correlation() *Correlation {
	return correlationFromExtra(p.Extra)
}

// CalendarEventInstance is one occurrence inside a calendar.event_created or
// calendar.event_updated payload.
type CalendarEventInstance struct {
	EventID            string     `json:"event_id"`
	Title              string     `json:"title"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	MeetingURL         string     `json:"meeting_url"`
	BotScheduled       bool       `json:"bot_scheduled"`
	SeriesID           string     `json:"series_id"`
	SeriesBotScheduled bool       `json:"series_bot_scheduled"`
	Recurrence         string     `json:"recurrence"`
}

// CalendarEventPayload is the payload for calendar.event_created and
// calendar.event_updated webhook events.
type CalendarEventPayload struct {
	CalendarID string                  `json:"calendar_id"`
	Instances  []CalendarEventInstance `json:"instances"`
}

// Validate checks the required fields of the payload.
func (p *CalendarEventPayload) Validate() error {
	if p.CalendarID == "" {
		return fmt.Errorf("calendar event payload missing calendar_id")
	}
	if len(p.Instances) == 0 {
		return fmt.Errorf("calendar event payload missing instances")
	}
	for i, instance := range p.Instances {
		if instance.EventID == "" {
			return fmt.Errorf("calendar event payload instance %d missing event_id", i)
		}
	}
	return nil
}

// CalendarEventCancelledPayload is the payload for calendar.event_cancelled
// webhook events.
type CalendarEventCancelledPayload struct {
	CalendarID string `json:"calendar_id"`
	EventID    string `json:"event_id"`
}

// Validate checks the required fields of the payload.
func (p *CalendarEventCancelledPayload) Validate() error {
	if p.EventID == "" {
		return fmt.Errorf("calendar.event_cancelled payload missing event_id")
	}
	return nil
}

// CalendarConnectionPayload is the payload for the
// calendar.connection_created, calendar.connection_updated,
// calendar.connection_deleted and calendar.connection_error webhook events.
type CalendarConnectionPayload struct {
	UserID       string `json:"user_id"`
	Provider     string `json:"provider"`
	Email        string `json:"email"`
	CalendarID   string `json:"calendar_id"`
	ErrorMessage string `json:"error_message"`
}

// Validate checks the required fields of the payload.
func (p *CalendarConnectionPayload) Validate() error {
	if p.CalendarID == "" {
		return fmt.Errorf("calendar connection payload missing calendar_id")
	}
	return nil
}

// CalendarSyncPayload is the payload for calendar.events_synced webhook
// events.
type CalendarSyncPayload struct {
	CalendarID string `json:"calendar_id"`
}

// Validate checks the required fields of the payload.
func (p *CalendarSyncPayload) Validate() error {
	if p.CalendarID == "" {
		return fmt.Errorf("calendar.events_synced payload missing calendar_id")
	}
	return nil
}

// correlationFromExtra recovers a correlation structure out of the vendor's
// echoed extra map. Fields are extracted individually and only when they are
// strings, so one malformed hint never discards the others. Returns nil when
// no usable hint is present.
func correlationFromExtra(extra map[string]any) *Correlation {
	if len(extra) == 0 {
		return nil
	}

	stringField := func(key string) string {
		if value, ok := extra[key].(string); ok {
			return value
		}
		return ""
	}

	version := CorrelationVersion
	if v, ok := extra["version"].(float64); ok {
		version = int(v)
	}

	correlation := &Correlation{
		Version:    version,
		UserID:     stringField("user_id"),
		CalendarID: stringField("calendar_id"),
		EventID:    stringField("event_id"),
	}
	if correlation.UserID == "" && correlation.CalendarID == "" && correlation.EventID == "" {
		return nil
	}
	return correlation
}
