// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"time"
)

// CalendarEvent is a locally cached projection of one vendor calendar
// occurrence. Rows are created and refreshed by the calendar event cache and
// only removed by explicit cleanup when the owning calendar no longer exists.
type CalendarEvent struct {
	EventID            string          `json:"event_id"`
	CalendarID         string          `json:"calendar_id"`
	Title              string          `json:"title,omitempty"`
	StartTime          *time.Time      `json:"start_time,omitempty"`
	EndTime            *time.Time      `json:"end_time,omitempty"`
	MeetingURL         string          `json:"meeting_url,omitempty"`
	BotScheduled       bool            `json:"bot_scheduled"`
	SeriesID           string          `json:"series_id,omitempty"`
	SeriesBotScheduled bool            `json:"series_bot_scheduled,omitempty"`
	Recurrence         string          `json:"recurrence,omitempty"`
	FetchedAt          time.Time       `json:"fetched_at"`
	Raw                json.RawMessage `json:"raw,omitempty"`
}

// IsFresh reports whether the cached row is still inside the freshness window
// measured from its last fetch.
func (e *CalendarEvent) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// IsRecurring reports whether the event belongs to a recurring series.
func (e *CalendarEvent) IsRecurring() bool {
	return e.SeriesID != "" || e.Recurrence != ""
}
