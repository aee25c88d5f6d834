// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package baas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// botResponse is the vendor's wire representation of a bot.
type botResponse struct {
	ID     string `json:"id"`
	Status struct {
		Code string `json:"code"`
	} `json:"status"`
	MeetingURL string `json:"meeting_url"`
	EventID    string `json:"event_id"`
}

func (b *botResponse) toDomain() *domain.Bot {
	return &domain.Bot{
		ID:         b.ID,
		Status:     models.BotStatus(b.Status.Code),
		MeetingURL: b.MeetingURL,
		EventID:    b.EventID,
	}
}

// CreateBot asks the vendor to join a meeting URL directly.
func (c *Client) CreateBot(ctx context.Context, request *domain.CreateBotRequest) (*domain.Bot, error) {
	if request == nil || request.MeetingURL == "" {
		return nil, domain.NewValidationError("meeting URL is required")
	}
	if _, err := url.ParseRequestURI(request.MeetingURL); err != nil {
		return nil, domain.NewValidationError("invalid meeting URL", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/bots", request)
	if err != nil {
		return nil, err
	}

	bot, err := decodeResponse[botResponse](resp)
	if err != nil {
		return nil, err
	}
	return bot.toDomain(), nil
}

// GetBot retrieves the current state of a bot.
func (c *Client) GetBot(ctx context.Context, botID string) (*domain.Bot, error) {
	if botID == "" {
		return nil, domain.NewValidationError("bot ID is required")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/bots/%s", url.PathEscape(botID)), nil)
	if err != nil {
		return nil, err
	}

	bot, err := decodeResponse[botResponse](resp)
	if err != nil {
		return nil, err
	}
	return bot.toDomain(), nil
}

// ListBots lists all bots known to the vendor for this API key.
func (c *Client) ListBots(ctx context.Context) ([]*domain.Bot, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/bots", nil)
	if err != nil {
		return nil, err
	}

	list, err := decodeResponse[[]botResponse](resp)
	if err != nil {
		return nil, err
	}

	bots := make([]*domain.Bot, 0, len(*list))
	for i := range *list {
		bots = append(bots, (*list)[i].toDomain())
	}
	return bots, nil
}

// LeaveCall tells the bot to leave its call immediately.
func (c *Client) LeaveCall(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot ID is required")
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/bots/%s/leave", url.PathEscape(botID)), nil)
	if err != nil {
		return err
	}
	return drainResponse(resp)
}

// DeleteBot removes a bot and its vendor-side artifacts.
func (c *Client) DeleteBot(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot ID is required")
	}

	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/bots/%s", url.PathEscape(botID)), nil)
	if err != nil {
		return err
	}
	return drainResponse(resp)
}

// RetryTranscription asks the vendor to re-run transcription for a bot.
func (c *Client) RetryTranscription(ctx context.Context, botID string) error {
	if botID == "" {
		return domain.NewValidationError("bot ID is required")
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/bots/%s/retry_transcription", url.PathEscape(botID)), nil)
	if err != nil {
		return err
	}
	return drainResponse(resp)
}
