// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

func completionResponse(content string) string {
	resp := chatResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: "assistant", Content: content}})
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGenerateSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Messages[1].Content, "action items") {
			_, _ = w.Write([]byte(completionResponse(`{"action_items":[{"text":"send the notes","assignee":"alice"}]}`)))
			return
		}
		_, _ = w.Write([]byte(completionResponse(`{"summary":"The team reviewed the release.","qa":[{"question":"When do we ship?","answer":"Friday."}]}`)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})

	result, err := client.GenerateSummary(context.Background(), &domain.SummaryRequest{
		Utterances: []models.Utterance{
			{Speaker: "Alice", Text: "Let's review the release."},
			{Speaker: "Bob", Text: "We ship Friday."},
		},
		IncludeQA: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "The team reviewed the release.", result.Summary)
	require.Len(t, result.ActionItems, 1)
	assert.Equal(t, "send the notes", result.ActionItems[0].Text)
	assert.Equal(t, "alice", result.ActionItems[0].Assignee)
	require.Len(t, result.QA, 1)
	assert.Equal(t, "When do we ship?", result.QA[0].Question)
}

func TestGenerateSummaryRequiresTranscript(t *testing.T) {
	client := NewClient(Config{APIKey: "key", BaseURL: "http://unused"})

	_, err := client.GenerateSummary(context.Background(), &domain.SummaryRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestGenerateSummaryMapsServiceErrors(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		expectedType domain.ErrorType
	}{
		{name: "rate limited", statusCode: http.StatusTooManyRequests, expectedType: domain.ErrorTypeRateLimit},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, expectedType: domain.ErrorTypeUnauthorized},
		{name: "server error", statusCode: http.StatusBadGateway, expectedType: domain.ErrorTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "key", BaseURL: server.URL})

			_, err := client.GenerateSummary(context.Background(), &domain.SummaryRequest{
				Utterances: []models.Utterance{{Speaker: "Alice", Text: "hello"}},
			})
			require.Error(t, err)
			assert.Equal(t, tt.expectedType, domain.GetErrorType(err))
		})
	}
}

func TestFormatTranscript(t *testing.T) {
	text := formatTranscript([]models.Utterance{
		{Speaker: "Alice", Text: "hello"},
		{Text: "who said this"},
	})
	assert.Equal(t, "Alice: hello\nUnknown: who said this\n", text)
}
