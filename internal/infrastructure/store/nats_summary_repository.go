// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// NatsSummaryRepository is the NATS KV store repository for AI-generated
// summaries and action items.
//
// Layout of the summaries bucket:
//   - summary/<meetingUID>       the summary singleton
//   - action-items/<meetingUID>  the ordered action item collection
type NatsSummaryRepository struct {
	summaries   *NatsBaseRepository[models.Summary]
	actionItems *NatsBaseRepository[models.ActionItemList]
	keyBuilder  *KeyBuilder
}

// NewNatsSummaryRepository creates a new NATS KV store repository for
// summaries.
func NewNatsSummaryRepository(kvStore INatsKeyValue) *NatsSummaryRepository {
	return &NatsSummaryRepository{
		summaries:   NewNatsBaseRepository[models.Summary](kvStore, "summary"),
		actionItems: NewNatsBaseRepository[models.ActionItemList](kvStore, "action items"),
		keyBuilder:  NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsSummaryRepository) IsReady() bool {
	return r.summaries.IsReady()
}

// UpsertSummary replaces the summary singleton of a meeting.
func (r *NatsSummaryRepository) UpsertSummary(ctx context.Context, summary *models.Summary) error {
	if summary.MeetingUID == "" {
		return domain.NewValidationError("summary meeting UID is required")
	}
	key := r.keyBuilder.EntityKey(KeyPrefixSummary, summary.MeetingUID)
	return r.summaries.Put(ctx, key, summary)
}

// GetSummary retrieves the summary of a meeting.
func (r *NatsSummaryRepository) GetSummary(ctx context.Context, meetingUID string) (*models.Summary, error) {
	return r.summaries.Get(ctx, r.keyBuilder.EntityKey(KeyPrefixSummary, meetingUID))
}

// ReplaceActionItems replaces the whole action item collection of a meeting.
func (r *NatsSummaryRepository) ReplaceActionItems(ctx context.Context, items *models.ActionItemList) error {
	if items.MeetingUID == "" {
		return domain.NewValidationError("action items meeting UID is required")
	}
	key := r.keyBuilder.EntityKey(KeyPrefixActionItems, items.MeetingUID)
	return r.actionItems.Put(ctx, key, items)
}

// GetActionItems retrieves the action item collection of a meeting.
func (r *NatsSummaryRepository) GetActionItems(ctx context.Context, meetingUID string) (*models.ActionItemList, error) {
	return r.actionItems.Get(ctx, r.keyBuilder.EntityKey(KeyPrefixActionItems, meetingUID))
}
