// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
)

// MockCalendarAccountRepository implements CalendarAccountRepository for testing
type MockCalendarAccountRepository struct {
	mock.Mock
}

func (m *MockCalendarAccountRepository) CreateAccount(ctx context.Context, account *models.CalendarAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockCalendarAccountRepository) GetAccount(ctx context.Context, accountUID string) (*models.CalendarAccount, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarAccount), args.Error(1)
}

func (m *MockCalendarAccountRepository) GetAccountWithRevision(ctx context.Context, accountUID string) (*models.CalendarAccount, uint64, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.CalendarAccount), args.Get(1).(uint64), args.Error(2)
}

func (m *MockCalendarAccountRepository) UpdateAccount(ctx context.Context, account *models.CalendarAccount, revision uint64) error {
	args := m.Called(ctx, account, revision)
	return args.Error(0)
}

func (m *MockCalendarAccountRepository) GetAccountByCalendarID(ctx context.Context, calendarID string) (*models.CalendarAccount, error) {
	args := m.Called(ctx, calendarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarAccount), args.Error(1)
}

func (m *MockCalendarAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]*models.CalendarAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CalendarAccount), args.Error(1)
}
