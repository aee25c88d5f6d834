// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package ai contains the client for the OpenAI-compatible completion service
// used to generate meeting summaries and action items.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/concurrent"
)

const (
	// DefaultTimeout is the default HTTP client timeout for completion requests
	DefaultTimeout = 60 * time.Second
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
)

// Config holds the configuration for the completion service client
type Config struct {
	APIKey  string
	BaseURL string
	// Optional: override the completion model
	Model string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	config     Config
}

// Ensure that Client implements domain.SummaryGenerator
var _ domain.SummaryGenerator = (*Client)(nil)

// NewClient creates a new completion service client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type summaryOutput struct {
	Summary string          `json:"summary"`
	QA      []models.QAPair `json:"qa,omitempty"`
}

type actionItemsOutput struct {
	ActionItems []models.ActionItem `json:"action_items"`
}

// GenerateSummary produces the meeting summary and its action items. The two
// completion calls run concurrently; either failing fails the whole call.
func (c *Client) GenerateSummary(ctx context.Context, request *domain.SummaryRequest) (*domain.SummaryResult, error) {
	if request == nil || len(request.Utterances) == 0 {
		return nil, domain.NewValidationError("transcript is required for summary generation")
	}

	transcript := formatTranscript(request.Utterances)
	result := &domain.SummaryResult{}

	pool := concurrent.NewWorkerPool(2)
	err := pool.Run(ctx,
		func() error {
			output, err := c.generateSummaryContent(ctx, transcript, request.Vocabulary, request.IncludeQA)
			if err != nil {
				return err
			}
			result.Summary = output.Summary
			result.QA = output.QA
			return nil
		},
		func() error {
			output, err := c.generateActionItems(ctx, transcript)
			if err != nil {
				return err
			}
			result.ActionItems = output.ActionItems
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "summary generation completed",
		"summary_length", len(result.Summary),
		"action_items", len(result.ActionItems),
		"qa_pairs", len(result.QA),
	)
	return result, nil
}

func (c *Client) generateSummaryContent(ctx context.Context, transcript string, vocabulary []string, includeQA bool) (*summaryOutput, error) {
	var prompt strings.Builder
	prompt.WriteString("Summarize the following meeting transcript. ")
	prompt.WriteString(`Respond with a JSON object: {"summary": "..."`)
	if includeQA {
		prompt.WriteString(`, "qa": [{"question": "...", "answer": "..."}]`)
	}
	prompt.WriteString("}.")
	if len(vocabulary) > 0 {
		prompt.WriteString(" Domain vocabulary that may appear: ")
		prompt.WriteString(strings.Join(vocabulary, ", "))
		prompt.WriteString(".")
	}
	prompt.WriteString("\n\n")
	prompt.WriteString(transcript)

	content, err := c.complete(ctx, prompt.String())
	if err != nil {
		return nil, err
	}

	var output summaryOutput
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return nil, domain.NewInternalError("failed to parse summary response", err)
	}
	return &output, nil
}

func (c *Client) generateActionItems(ctx context.Context, transcript string) (*actionItemsOutput, error) {
	prompt := "Extract the action items from the following meeting transcript. " +
		`Respond with a JSON object: {"action_items": [{"text": "...", "assignee": "..."}]}. ` +
		"Omit the assignee when nobody was named. Return an empty list when there are none.\n\n" +
		transcript

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var output actionItemsOutput
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return nil, domain.NewInternalError("failed to parse action items response", err)
	}
	return &output, nil
}

// complete performs one chat completion call and returns the first choice's
// content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an assistant that analyzes meeting transcripts. Always respond with valid JSON."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		slog.ErrorContext(ctx, "completion request failed",
			"duration", duration.String(),
			logging.ErrKey, err)
		return "", domain.NewUnavailableError("completion service request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		slog.ErrorContext(ctx, "completion service error response",
			"status", resp.StatusCode,
			"duration", duration.String(),
			"body", string(body),
		)
		return "", mapStatusError(resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", domain.NewInternalError("failed to decode completion response", err)
	}
	if len(completion.Choices) == 0 {
		return "", domain.NewInternalError("completion response contained no choices")
	}

	slog.DebugContext(ctx, "completion request completed",
		"model", c.config.Model,
		"duration", duration.String(),
	)
	return completion.Choices[0].Message.Content, nil
}

func mapStatusError(statusCode int) error {
	message := fmt.Sprintf("completion service error (status %d)", statusCode)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.NewUnauthorizedError(message)
	case statusCode == http.StatusTooManyRequests:
		return domain.NewRateLimitError(message)
	case statusCode >= 500:
		return domain.NewUnavailableError(message)
	default:
		return domain.NewValidationError(message)
	}
}

// formatTranscript renders utterances as "Speaker: text" lines.
func formatTranscript(utterances []models.Utterance) string {
	var b strings.Builder
	for _, u := range utterances {
		speaker := u.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(u.Text)
		b.WriteString("\n")
	}
	return b.String()
}
