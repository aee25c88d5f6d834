// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MockRecorderClient implements RecorderClient for testing
type MockRecorderClient struct {
	mock.Mock
}

func (m *MockRecorderClient) CreateBot(ctx context.Context, request *domain.CreateBotRequest) (*domain.Bot, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bot), args.Error(1)
}

func (m *MockRecorderClient) GetBot(ctx context.Context, botID string) (*domain.Bot, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bot), args.Error(1)
}

func (m *MockRecorderClient) ListBots(ctx context.Context) ([]*domain.Bot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bot), args.Error(1)
}

func (m *MockRecorderClient) LeaveCall(ctx context.Context, botID string) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}

func (m *MockRecorderClient) DeleteBot(ctx context.Context, botID string) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}

func (m *MockRecorderClient) RetryTranscription(ctx context.Context, botID string) error {
	args := m.Called(ctx, botID)
	return args.Error(0)
}

func (m *MockRecorderClient) CreateCalendar(ctx context.Context, request *domain.CreateCalendarRequest) (*domain.Calendar, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Calendar), args.Error(1)
}

func (m *MockRecorderClient) ListCalendars(ctx context.Context) ([]*domain.Calendar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Calendar), args.Error(1)
}

func (m *MockRecorderClient) ListCalendarEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx, calendarID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarEvent), args.Error(1)
}

func (m *MockRecorderClient) ScheduleBot(ctx context.Context, request *domain.ScheduleBotRequest) (*domain.Bot, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bot), args.Error(1)
}

func (m *MockRecorderClient) DeleteCalendar(ctx context.Context, calendarID string) error {
	args := m.Called(ctx, calendarID)
	return args.Error(0)
}
