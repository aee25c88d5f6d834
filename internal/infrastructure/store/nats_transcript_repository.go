// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// NatsTranscriptRepository is the NATS KV store repository for transcripts
// and diarization documents. Both are singleton children of a meeting and are
// replaced wholesale on each ingestion.
//
// Layout of the transcripts bucket:
//   - transcript/<meetingUID>   the transcript
//   - diarization/<meetingUID>  the diarization document
type NatsTranscriptRepository struct {
	transcripts  *NatsBaseRepository[models.Transcript]
	diarizations *NatsBaseRepository[models.Diarization]
	keyBuilder   *KeyBuilder
}

// NewNatsTranscriptRepository creates a new NATS KV store repository for
// transcripts.
func NewNatsTranscriptRepository(kvStore INatsKeyValue) *NatsTranscriptRepository {
	return &NatsTranscriptRepository{
		transcripts:  NewNatsBaseRepository[models.Transcript](kvStore, "transcript"),
		diarizations: NewNatsBaseRepository[models.Diarization](kvStore, "diarization"),
		keyBuilder:   NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsTranscriptRepository) IsReady() bool {
	return r.transcripts.IsReady()
}

// UpsertTranscript replaces the transcript of a meeting.
func (r *NatsTranscriptRepository) UpsertTranscript(ctx context.Context, transcript *models.Transcript) error {
	if transcript.MeetingUID == "" {
		return domain.NewValidationError("transcript meeting UID is required")
	}
	key := r.keyBuilder.EntityKey(KeyPrefixTranscript, transcript.MeetingUID)
	return r.transcripts.Put(ctx, key, transcript)
}

// GetTranscript retrieves the transcript of a meeting.
func (r *NatsTranscriptRepository) GetTranscript(ctx context.Context, meetingUID string) (*models.Transcript, error) {
	return r.transcripts.Get(ctx, r.keyBuilder.EntityKey(KeyPrefixTranscript, meetingUID))
}

// UpsertDiarization replaces the diarization document of a meeting.
func (r *NatsTranscriptRepository) UpsertDiarization(ctx context.Context, diarization *models.Diarization) error {
	if diarization.MeetingUID == "" {
		return domain.NewValidationError("diarization meeting UID is required")
	}
	key := r.keyBuilder.EntityKey(KeyPrefixDiarization, diarization.MeetingUID)
	return r.diarizations.Put(ctx, key, diarization)
}

// GetDiarization retrieves the diarization document of a meeting.
func (r *NatsTranscriptRepository) GetDiarization(ctx context.Context, meetingUID string) (*models.Diarization, error) {
	return r.diarizations.Get(ctx, r.keyBuilder.EntityKey(KeyPrefixDiarization, meetingUID))
}
