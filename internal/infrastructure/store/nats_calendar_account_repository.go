// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// NatsCalendarAccountRepository is the NATS KV store repository for calendar
// accounts.
//
// Layout of the calendar-accounts bucket:
//   - account/<uid>                                  the account record
//   - index/calendar/<calendarID>                    value is the account UID
//   - index/user/<userID>/<uid>                      membership index
//   - index/identity/<userID>/<provider>/<email>     uniqueness anchor (encoded)
//
// The identity index is base64 encoded because email addresses contain
// characters NATS KV keys do not allow.
type NatsCalendarAccountRepository struct {
	*NatsBaseRepository[models.CalendarAccount]
	keyBuilder *KeyBuilder
}

// NewNatsCalendarAccountRepository creates a new NATS KV store repository for
// calendar accounts.
func NewNatsCalendarAccountRepository(kvStore INatsKeyValue) *NatsCalendarAccountRepository {
	return &NatsCalendarAccountRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarAccount](kvStore, "calendar account"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsCalendarAccountRepository) entityKey(accountUID string) string {
	return r.keyBuilder.EntityKey(KeyPrefixAccount, accountUID)
}

func (r *NatsCalendarAccountRepository) calendarIndexKey(calendarID string) string {
	return r.keyBuilder.IndexKey(KeyPrefixIndexCalendar, calendarID)
}

func (r *NatsCalendarAccountRepository) userIndexKey(userID, accountUID string) string {
	return r.keyBuilder.ScopedIndexKey(KeyPrefixIndexUser, userID, accountUID)
}

func (r *NatsCalendarAccountRepository) identityIndexKey(account *models.CalendarAccount) string {
	return r.keyBuilder.IndexKeyEncoded(KeyPrefixIndexIdentity, account.UserID, account.Provider, account.Email)
}

// CreateAccount stores a new calendar account. The identity index enforces
// the user+provider+email uniqueness: a second connection for the same
// identity fails with a conflict.
func (r *NatsCalendarAccountRepository) CreateAccount(ctx context.Context, account *models.CalendarAccount) error {
	if account.UID == "" {
		return domain.NewValidationError("calendar account UID is required")
	}
	if account.UserID == "" {
		return domain.NewValidationError("calendar account user ID is required")
	}

	if err := r.CreateIndex(ctx, r.identityIndexKey(account), account.UID); err != nil {
		return err
	}

	if err := r.CreateOnly(ctx, r.entityKey(account.UID), account); err != nil {
		if delErr := r.DeleteIndex(ctx, r.identityIndexKey(account)); delErr != nil {
			slog.WarnContext(ctx, "failed to roll back identity index after account creation failure",
				logging.ErrKey, delErr, "account_uid", account.UID)
		}
		return err
	}

	if err := r.PutIndex(ctx, r.userIndexKey(account.UserID, account.UID), account.UID); err != nil {
		slog.WarnContext(ctx, "failed to write user membership index",
			logging.ErrKey, err, "account_uid", account.UID)
	}
	if account.CalendarID != "" {
		if err := r.PutIndex(ctx, r.calendarIndexKey(account.CalendarID), account.UID); err != nil {
			slog.WarnContext(ctx, "failed to write calendar index",
				logging.ErrKey, err, "account_uid", account.UID, "calendar_id", account.CalendarID)
		}
	}

	return nil
}

// GetAccount retrieves a calendar account by its UID.
func (r *NatsCalendarAccountRepository) GetAccount(ctx context.Context, accountUID string) (*models.CalendarAccount, error) {
	return r.Get(ctx, r.entityKey(accountUID))
}

// GetAccountWithRevision retrieves a calendar account and its KV revision.
func (r *NatsCalendarAccountRepository) GetAccountWithRevision(ctx context.Context, accountUID string) (*models.CalendarAccount, uint64, error) {
	return r.GetWithRevision(ctx, r.entityKey(accountUID))
}

// UpdateAccount updates a calendar account with optimistic concurrency
// control, refreshing the calendar index in case the vendor-side calendar ID
// was assigned after creation.
func (r *NatsCalendarAccountRepository) UpdateAccount(ctx context.Context, account *models.CalendarAccount, revision uint64) error {
	if account.UID == "" {
		return domain.NewValidationError("calendar account UID is required")
	}

	if err := r.Update(ctx, r.entityKey(account.UID), account, revision); err != nil {
		return err
	}

	if account.CalendarID != "" {
		if err := r.PutIndex(ctx, r.calendarIndexKey(account.CalendarID), account.UID); err != nil {
			slog.WarnContext(ctx, "failed to refresh calendar index",
				logging.ErrKey, err, "account_uid", account.UID, "calendar_id", account.CalendarID)
		}
	}

	return nil
}

// GetAccountByCalendarID retrieves the account that owns the given
// vendor-side calendar ID.
func (r *NatsCalendarAccountRepository) GetAccountByCalendarID(ctx context.Context, calendarID string) (*models.CalendarAccount, error) {
	accountUID, err := r.GetIndexValue(ctx, r.calendarIndexKey(calendarID))
	if err != nil {
		return nil, err
	}
	return r.GetAccount(ctx, accountUID)
}

// ListAccountsByUser lists all calendar accounts of one user via the user
// membership index.
func (r *NatsCalendarAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]*models.CalendarAccount, error) {
	keys, err := r.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	prefix := r.keyBuilder.ScopedIndexKey(KeyPrefixIndexUser, userID, "")
	accounts := []*models.CalendarAccount{}
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		accountUID := strings.TrimPrefix(key, prefix)
		account, err := r.GetAccount(ctx, accountUID)
		if err != nil {
			slog.WarnContext(ctx, "failed to get indexed calendar account, skipping",
				logging.ErrKey, err, "account_uid", accountUID)
			continue
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}
