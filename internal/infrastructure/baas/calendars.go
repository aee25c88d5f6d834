// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// calendarResponse is the vendor's wire representation of a calendar.
type calendarResponse struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Email    string `json:"email"`
}

func (c *calendarResponse) toDomain() *domain.Calendar {
	return &domain.Calendar{
		ID:       c.ID,
		Provider: c.Provider,
		Email:    c.Email,
	}
}

// calendarEventResponse is the vendor's wire representation of one calendar
// event occurrence.
type calendarEventResponse struct {
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

func (e *calendarEventResponse) toModel(calendarID string) *models.CalendarEvent {
	raw, _ := json.Marshal(e)
	return &models.CalendarEvent{
		EventID:            e.EventID,
		CalendarID:         calendarID,
		Title:              e.Title,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		MeetingURL:         e.MeetingURL,
		BotScheduled:       e.BotScheduled,
		SeriesID:           e.SeriesID,
		SeriesBotScheduled: e.SeriesBotScheduled,
		Recurrence:         e.Recurrence,
		Raw:                raw,
	}
}

// CreateCalendar connects a calendar on the vendor side.
func (c *Client) CreateCalendar(ctx context.Context, request *domain.CreateCalendarRequest) (*domain.Calendar, error) {
	if request == nil || request.Provider == "" {
		return nil, domain.NewValidationError("calendar provider is required")
	}
	if request.RefreshToken == "" {
		return nil, domain.NewValidationError("refresh token is required")
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/calendars", request)
	if err != nil {
		return nil, err
	}

	calendar, err := decodeResponse[calendarResponse](resp)
	if err != nil {
		return nil, err
	}
	return calendar.toDomain(), nil
}

// ListCalendars lists all calendars connected for this API key.
func (c *Client) ListCalendars(ctx context.Context) ([]*domain.Calendar, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/calendars", nil)
	if err != nil {
		return nil, err
	}

	list, err := decodeResponse[[]calendarResponse](resp)
	if err != nil {
		return nil, err
	}

	calendars := make([]*domain.Calendar, 0, len(*list))
	for i := range *list {
		calendars = append(calendars, (*list)[i].toDomain())
	}
	return calendars, nil
}

// ListCalendarEvents lists the events of one calendar within a time range.
func (c *Client) ListCalendarEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*models.CalendarEvent, error) {
	if calendarID == "" {
		return nil, domain.NewValidationError("calendar ID is required")
	}

	query := url.Values{}
	if !from.IsZero() {
		query.Set("start_date", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("end_date", to.Format(time.RFC3339))
	}
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	list, err := decodeResponse[[]calendarEventResponse](resp)
	if err != nil {
		return nil, err
	}

	events := make([]*models.CalendarEvent, 0, len(*list))
	for i := range *list {
		events = append(events, (*list)[i].toModel(calendarID))
	}
	return events, nil
}

// ScheduleBot asks the vendor to schedule a recording bot for a calendar
// event, carrying the correlation payload the vendor echoes back on every
// later callback.
func (c *Client) ScheduleBot(ctx context.Context, request *domain.ScheduleBotRequest) (*domain.Bot, error) {
	if request == nil || request.CalendarID == "" {
		return nil, domain.NewValidationError("calendar ID is required")
	}
	if request.EventID == "" {
		return nil, domain.NewValidationError("event ID is required")
	}

	path := fmt.Sprintf("/calendars/%s/events/%s/schedule",
		url.PathEscape(request.CalendarID), url.PathEscape(request.EventID))
	resp, err := c.doRequest(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, err
	}

	bot, err := decodeResponse[botResponse](resp)
	if err != nil {
		return nil, err
	}
	return bot.toDomain(), nil
}

// DeleteCalendar disconnects a calendar on the vendor side.
func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	if calendarID == "" {
		return domain.NewValidationError("calendar ID is required")
	}

	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/calendars/%s", url.PathEscape(calendarID)), nil)
	if err != nil {
		return err
	}
	return drainResponse(resp)
}
