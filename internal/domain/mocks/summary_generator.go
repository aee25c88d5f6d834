// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
)

// MockSummaryGenerator implements SummaryGenerator for testing
type MockSummaryGenerator struct {
	mock.Mock
}

func (m *MockSummaryGenerator) GenerateSummary(ctx context.Context, request *domain.SummaryRequest) (*domain.SummaryResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryResult), args.Error(1)
}

// MockArtifactDownloader implements ArtifactDownloader for testing
type MockArtifactDownloader struct {
	mock.Mock
}

func (m *MockArtifactDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
