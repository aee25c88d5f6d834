// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MockTranscriptRepository implements TranscriptRepository for testing
type MockTranscriptRepository struct {
	mock.Mock
}

func (m *MockTranscriptRepository) UpsertTranscript(ctx context.Context, transcript *models.Transcript) error {
	args := m.Called(ctx, transcript)
	return args.Error(0)
}

func (m *MockTranscriptRepository) GetTranscript(ctx context.Context, meetingUID string) (*models.Transcript, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transcript), args.Error(1)
}

func (m *MockTranscriptRepository) UpsertDiarization(ctx context.Context, diarization *models.Diarization) error {
	args := m.Called(ctx, diarization)
	return args.Error(0)
}

func (m *MockTranscriptRepository) GetDiarization(ctx context.Context, meetingUID string) (*models.Diarization, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Diarization), args.Error(1)
}

// MockSummaryRepository implements SummaryRepository for testing
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) UpsertSummary(ctx context.Context, summary *models.Summary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryRepository) GetSummary(ctx context.Context, meetingUID string) (*models.Summary, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Summary), args.Error(1)
}

func (m *MockSummaryRepository) ReplaceActionItems(ctx context.Context, items *models.ActionItemList) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockSummaryRepository) GetActionItems(ctx context.Context, meetingUID string) (*models.ActionItemList, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActionItemList), args.Error(1)
}
