// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

const transcriptJSON = `[{"speaker":"Alice","text":"Welcome everyone.","start":0,"end":2.5},{"speaker":"Bob","text":"Thanks for having me.","start":2.5,"end":4}]`

func newArtifactService(
	transcripts *mocks.MockTranscriptRepository,
	summaries *mocks.MockSummaryRepository,
	downloader *mocks.MockArtifactDownloader,
	generator *mocks.MockSummaryGenerator,
) *ArtifactService {
	return NewArtifactService(transcripts, summaries, downloader, generator, ServiceConfig{})
}

func TestProcessArtifacts(t *testing.T) {
	meeting := &models.Meeting{
		UID:            "meeting-1",
		BotID:          "bot-1",
		TranscriptURL:  "https://cdn.example.com/transcript.json",
		DiarizationURL: "https://cdn.example.com/diarization.jsonl",
	}

	t.Run("ingests transcript, diarization and summary", func(t *testing.T) {
		transcripts := &mocks.MockTranscriptRepository{}
		summaries := &mocks.MockSummaryRepository{}
		downloader := &mocks.MockArtifactDownloader{}
		generator := &mocks.MockSummaryGenerator{}

		downloader.On("Download", mock.Anything, meeting.TranscriptURL).
			Return([]byte(transcriptJSON), nil)
		downloader.On("Download", mock.Anything, meeting.DiarizationURL).
			Return([]byte(`{"speaker":"Alice","start":0,"end":2.5}`+"\n"+`{"speaker":"Bob","start":2.5,"end":4}`), nil)
		transcripts.On("UpsertTranscript", mock.Anything, mock.MatchedBy(func(tr *models.Transcript) bool {
			return tr.MeetingUID == "meeting-1" && len(tr.Utterances) == 2
		})).Return(nil)
		transcripts.On("UpsertDiarization", mock.Anything, mock.MatchedBy(func(d *models.Diarization) bool {
			return d.MeetingUID == "meeting-1" && len(d.Segments) == 2
		})).Return(nil)
		generator.On("GenerateSummary", mock.Anything, mock.Anything).
			Return(&domain.SummaryResult{
				Summary:     "A short meeting.",
				ActionItems: []models.ActionItem{{Text: "Send notes", Assignee: "Alice"}},
			}, nil)
		summaries.On("UpsertSummary", mock.Anything, mock.MatchedBy(func(s *models.Summary) bool {
			return s.MeetingUID == "meeting-1" && s.Content == "A short meeting."
		})).Return(nil)
		summaries.On("ReplaceActionItems", mock.Anything, mock.MatchedBy(func(l *models.ActionItemList) bool {
			return l.MeetingUID == "meeting-1" && len(l.Items) == 1
		})).Return(nil)

		svc := newArtifactService(transcripts, summaries, downloader, generator)
		require.NoError(t, svc.ProcessArtifacts(context.Background(), meeting))

		transcripts.AssertExpectations(t)
		summaries.AssertExpectations(t)
	})

	t.Run("diarization failure does not fail the ingestion", func(t *testing.T) {
		transcripts := &mocks.MockTranscriptRepository{}
		summaries := &mocks.MockSummaryRepository{}
		downloader := &mocks.MockArtifactDownloader{}
		generator := &mocks.MockSummaryGenerator{}

		downloader.On("Download", mock.Anything, meeting.TranscriptURL).
			Return([]byte(transcriptJSON), nil)
		downloader.On("Download", mock.Anything, meeting.DiarizationURL).
			Return(nil, domain.NewUnavailableError("artifact fetch failed"))
		transcripts.On("UpsertTranscript", mock.Anything, mock.Anything).Return(nil)
		generator.On("GenerateSummary", mock.Anything, mock.Anything).
			Return(nil, domain.NewUnavailableError("completion service unavailable"))

		svc := newArtifactService(transcripts, summaries, downloader, generator)
		require.NoError(t, svc.ProcessArtifacts(context.Background(), meeting))

		transcripts.AssertNotCalled(t, "UpsertDiarization", mock.Anything, mock.Anything)
		summaries.AssertNotCalled(t, "UpsertSummary", mock.Anything, mock.Anything)
	})

	t.Run("missing transcript fails the ingestion", func(t *testing.T) {
		transcripts := &mocks.MockTranscriptRepository{}
		summaries := &mocks.MockSummaryRepository{}
		downloader := &mocks.MockArtifactDownloader{}
		generator := &mocks.MockSummaryGenerator{}

		downloader.On("Download", mock.Anything, meeting.TranscriptURL).
			Return(nil, domain.NewNotFoundError("artifact not found"))
		downloader.On("Download", mock.Anything, meeting.DiarizationURL).
			Return([]byte(`{"speaker":"Alice","start":0,"end":1}`), nil)
		transcripts.On("UpsertDiarization", mock.Anything, mock.Anything).Return(nil)

		svc := newArtifactService(transcripts, summaries, downloader, generator)
		err := svc.ProcessArtifacts(context.Background(), meeting)

		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeArtifact, domain.GetErrorType(err))
		transcripts.AssertNotCalled(t, "UpsertTranscript", mock.Anything, mock.Anything)
	})

	t.Run("no transcript URL fails the ingestion", func(t *testing.T) {
		svc := newArtifactService(&mocks.MockTranscriptRepository{}, &mocks.MockSummaryRepository{}, &mocks.MockArtifactDownloader{}, &mocks.MockSummaryGenerator{})
		err := svc.ProcessArtifacts(context.Background(), &models.Meeting{UID: "meeting-2"})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeArtifact, domain.GetErrorType(err))
	})
}

func TestParseTranscript(t *testing.T) {
	t.Run("JSON array of utterances", func(t *testing.T) {
		utterances, err := parseTranscript([]byte(transcriptJSON))
		require.NoError(t, err)
		require.Len(t, utterances, 2)
		assert.Equal(t, "Alice", utterances[0].Speaker)
		assert.Equal(t, "Thanks for having me.", utterances[1].Text)
	})

	t.Run("plain text lines", func(t *testing.T) {
		utterances, err := parseTranscript([]byte("first line\n\nsecond line\n"))
		require.NoError(t, err)
		require.Len(t, utterances, 2)
		assert.Equal(t, "first line", utterances[0].Text)
	})

	t.Run("malformed JSON array", func(t *testing.T) {
		_, err := parseTranscript([]byte(`[{"speaker":`))
		require.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		utterances, err := parseTranscript([]byte("  \n "))
		require.NoError(t, err)
		assert.Empty(t, utterances)
	})
}

func TestParseDiarization(t *testing.T) {
	data := []byte(`{"speaker":"Alice","start":0,"end":2}
not json at all
{"speaker":"Bob","start":2,"end":4}
{broken
`)
	segments, dropped := parseDiarization(data)
	require.Len(t, segments, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "Alice", segments[0].Speaker)
	assert.Equal(t, "Bob", segments[1].Speaker)
}
