// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// SummaryRequest carries the transcript and user-configured vocabulary hints
// for one generation call.
type SummaryRequest struct {
	Utterances []models.Utterance
	Vocabulary []string
	IncludeQA  bool
}

// SummaryResult is the outcome of one generation call.
type SummaryResult struct {
	Summary     string
	ActionItems []models.ActionItem
	QA          []models.QAPair
}

// SummaryGenerator is the narrow contract to the AI completion service.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, request *SummaryRequest) (*SummaryResult, error)
}
