// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/concurrent"
)

// ArtifactService ingests the artifacts of a completed meeting: transcript,
// diarization, and the generated summary with its action items.
type ArtifactService struct {
	transcriptRepository domain.TranscriptRepository
	summaryRepository    domain.SummaryRepository
	downloader           domain.ArtifactDownloader
	generator            domain.SummaryGenerator
	config               ServiceConfig
}

// NewArtifactService creates a new ArtifactService
func NewArtifactService(
	transcriptRepository domain.TranscriptRepository,
	summaryRepository domain.SummaryRepository,
	downloader domain.ArtifactDownloader,
	generator domain.SummaryGenerator,
	config ServiceConfig,
) *ArtifactService {
	return &ArtifactService{
		transcriptRepository: transcriptRepository,
		summaryRepository:    summaryRepository,
		downloader:           downloader,
		generator:            generator,
		config:               config,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *ArtifactService) ServiceReady() bool {
	return s.transcriptRepository != nil &&
		s.summaryRepository != nil &&
		s.downloader != nil &&
		s.generator != nil
}

// ProcessArtifacts downloads and persists the meeting's artifacts. The
// transcript and diarization downloads run concurrently and each tolerates
// failure; an error is returned only when no transcript could be obtained at
// all, which callers treat as a processing failure. Summary generation
// failures are logged and never fail the ingestion.
func (s *ArtifactService) ProcessArtifacts(ctx context.Context, meeting *models.Meeting) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meeting.UID))

	var utterances []models.Utterance
	var segments []models.SpeakerSegment

	pool := concurrent.NewWorkerPool(2)
	errs := pool.RunAll(ctx,
		func() error {
			if meeting.TranscriptURL == "" {
				return domain.NewArtifactError("meeting has no transcript URL")
			}
			data, err := s.downloader.Download(ctx, meeting.TranscriptURL)
			if err != nil {
				return domain.NewArtifactError("transcript download failed", err)
			}
			utterances, err = parseTranscript(data)
			if err != nil {
				return domain.NewArtifactError("transcript parse failed", err)
			}
			return nil
		},
		func() error {
			if meeting.DiarizationURL == "" {
				return nil
			}
			data, err := s.downloader.Download(ctx, meeting.DiarizationURL)
			if err != nil {
				// Diarization is best-effort; the transcript decides success.
				slog.WarnContext(ctx, "diarization download failed", logging.ErrKey, err)
				return nil
			}
			var dropped int
			segments, dropped = parseDiarization(data)
			if dropped > 0 {
				slog.WarnContext(ctx, "dropped malformed diarization lines", "dropped", dropped)
			}
			return nil
		},
	)

	now := time.Now().UTC()

	if len(segments) > 0 {
		diarization := &models.Diarization{
			MeetingUID: meeting.UID,
			Segments:   segments,
			UpdatedAt:  now,
		}
		if err := s.transcriptRepository.UpsertDiarization(ctx, diarization); err != nil {
			slog.ErrorContext(ctx, "failed to save diarization", logging.ErrKey, err)
		}
	}

	if len(utterances) == 0 {
		for _, err := range errs {
			slog.ErrorContext(ctx, "transcript ingestion failed", logging.ErrKey, err)
		}
		return domain.NewArtifactError("no transcript obtained for meeting")
	}

	transcript := &models.Transcript{
		MeetingUID: meeting.UID,
		Utterances: utterances,
		UpdatedAt:  now,
	}
	if err := s.transcriptRepository.UpsertTranscript(ctx, transcript); err != nil {
		return err
	}

	s.generateSummary(ctx, meeting.UID, utterances)
	return nil
}

// generateSummary calls the AI completion service and persists the result.
// Generation failures are logged; the summary and action items are simply
// absent.
func (s *ArtifactService) generateSummary(ctx context.Context, meetingUID string, utterances []models.Utterance) {
	result, err := s.generator.GenerateSummary(ctx, &domain.SummaryRequest{
		Utterances: utterances,
		Vocabulary: s.config.SummaryVocabulary,
		IncludeQA:  s.config.IncludeQA,
	})
	if err != nil {
		slog.ErrorContext(ctx, "summary generation failed", logging.ErrKey, err)
		return
	}

	now := time.Now().UTC()
	summary := &models.Summary{
		MeetingUID:  meetingUID,
		Content:     result.Summary,
		QA:          result.QA,
		GeneratedAt: now,
	}
	if err := s.summaryRepository.UpsertSummary(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "failed to save summary", logging.ErrKey, err)
	}

	items := &models.ActionItemList{
		MeetingUID: meetingUID,
		Items:      result.ActionItems,
		UpdatedAt:  now,
	}
	if err := s.summaryRepository.ReplaceActionItems(ctx, items); err != nil {
		slog.ErrorContext(ctx, "failed to save action items", logging.ErrKey, err)
	}
}

// parseTranscript parses a transcript artifact. The vendor serves a JSON
// array of utterances; anything else is treated as plain text, one utterance
// per non-empty line.
func parseTranscript(data []byte) ([]models.Utterance, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var utterances []models.Utterance
		if err := json.Unmarshal(trimmed, &utterances); err != nil {
			return nil, err
		}
		return utterances, nil
	}

	var utterances []models.Utterance
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		utterances = append(utterances, models.Utterance{Text: line})
	}
	return utterances, scanner.Err()
}

// parseDiarization parses a line-delimited JSON diarization document.
// Malformed lines are dropped individually rather than failing the whole
// document; the second return value counts them.
func parseDiarization(data []byte) ([]models.SpeakerSegment, int) {
	var segments []models.SpeakerSegment
	var dropped int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var segment models.SpeakerSegment
		if err := json.Unmarshal([]byte(line), &segment); err != nil {
			dropped++
			continue
		}
		segments = append(segments, segment)
	}
	return segments, dropped
}
