// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MockCalendarEventRepository implements CalendarEventRepository for testing
type MockCalendarEventRepository struct {
	mock.Mock
}

func (m *MockCalendarEventRepository) UpsertEvent(ctx context.Context, event *models.CalendarEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockCalendarEventRepository) GetEvent(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}

func (m *MockCalendarEventRepository) DeleteEvent(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockCalendarEventRepository) ListEventsByCalendar(ctx context.Context, calendarID string) ([]*models.CalendarEvent, error) {
	args := m.Called(ctx, calendarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarEvent), args.Error(1)
}

func (m *MockCalendarEventRepository) DeleteEventsByCalendar(ctx context.Context, calendarID string) error {
	args := m.Called(ctx, calendarID)
	return args.Error(0)
}
