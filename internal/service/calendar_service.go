// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// CalendarCacheTTL is the freshness window of cached calendar events,
// measured from each row's last fetch.
const CalendarCacheTTL = 8 * time.Hour

// CalendarService serves calendar events through a TTL cache in front of the
// vendor, and maintains the calendar account records driven by the connection
// lifecycle webhooks.
type CalendarService struct {
	eventRepository   domain.CalendarEventRepository
	accountRepository domain.CalendarAccountRepository
	recorderClient    domain.RecorderClient
	now               func() time.Time
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(
	eventRepository domain.CalendarEventRepository,
	accountRepository domain.CalendarAccountRepository,
	recorderClient domain.RecorderClient,
) *CalendarService {
	return &CalendarService{
		eventRepository:   eventRepository,
		accountRepository: accountRepository,
		recorderClient:    recorderClient,
		now:               time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *CalendarService) ServiceReady() bool {
	return s.eventRepository != nil && s.accountRepository != nil && s.recorderClient != nil
}

// GetCalendarEvents returns the events of a calendar, sorted by start time.
// Fresh cached rows are served without a vendor call; a miss or an explicit
// force refresh fetches from the vendor and writes the rows back stamped with
// the refresh time. Cache save failures are logged but never withhold the
// fetched data from the caller.
func (s *CalendarService) GetCalendarEvents(ctx context.Context, calendarID string, from, to time.Time, force bool) ([]*models.CalendarEvent, error) {
	if calendarID == "" {
		return nil, domain.NewValidationError("calendar ID is required")
	}

	now := s.now().UTC()

	if !force {
		cached, err := s.eventRepository.ListEventsByCalendar(ctx, calendarID)
		if err != nil {
			slog.WarnContext(ctx, "calendar cache read failed, falling through to vendor",
				"calendar_id", calendarID,
				logging.ErrKey, err)
		} else {
			fresh := make([]*models.CalendarEvent, 0, len(cached))
			for _, event := range cached {
				if event.IsFresh(now, CalendarCacheTTL) {
					fresh = append(fresh, event)
				}
			}
			if len(fresh) > 0 {
				slog.DebugContext(ctx, "serving calendar events from cache",
					"calendar_id", calendarID,
					"count", len(fresh),
				)
				return sortEventsByStart(filterEventsByRange(fresh, from, to)), nil
			}
		}
	}

	events, err := s.recorderClient.ListCalendarEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		event.FetchedAt = now
		if err := s.eventRepository.UpsertEvent(ctx, event); err != nil {
			// The cache is an optimization, not a correctness dependency.
			slog.ErrorContext(ctx, "failed to cache calendar event",
				"calendar_id", calendarID,
				"calendar_event_id", event.EventID,
				logging.ErrKey, err)
		}
	}

	slog.InfoContext(ctx, "refreshed calendar events from vendor",
		"calendar_id", calendarID,
		"count", len(events),
		"force", force,
	)
	return sortEventsByStart(filterEventsByRange(events, from, to)), nil
}

// CacheEvent upserts one event row stamped with the current time. Used by the
// calendar event webhooks to keep the cache aligned without a full refresh.
func (s *CalendarService) CacheEvent(ctx context.Context, event *models.CalendarEvent) error {
	event.FetchedAt = s.now().UTC()
	return s.eventRepository.UpsertEvent(ctx, event)
}

// RemoveEvent deletes one cached event row.
func (s *CalendarService) RemoveEvent(ctx context.Context, eventID string) error {
	err := s.eventRepository.DeleteEvent(ctx, eventID)
	if err != nil && domain.GetErrorType(err) == domain.ErrorTypeNotFound {
		return nil
	}
	return err
}

// ActivateAccount creates or refreshes the calendar account for a connection
// lifecycle event.
func (s *CalendarService) ActivateAccount(ctx context.Context, userID string, payload *models.CalendarConnectionPayload) (*models.CalendarAccount, error) {
	account, revision, err := s.findAccount(ctx, userID, payload)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, err
		}
		return s.createAccount(ctx, userID, payload)
	}

	account.CalendarID = payload.CalendarID
	account.Active = true
	account.LastError = ""
	account.UpdatedAt = s.now().UTC()
	if err := s.accountRepository.UpdateAccount(ctx, account, revision); err != nil {
		return nil, err
	}
	return account, nil
}

// DeactivateAccount marks the account of a calendar inactive, recording the
// error when one was supplied. When removeEvents is set, the cached events
// owned by the calendar are cleaned up as well.
func (s *CalendarService) DeactivateAccount(ctx context.Context, calendarID, lastError string, removeEvents bool) error {
	account, err := s.accountRepository.GetAccountByCalendarID(ctx, calendarID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			slog.WarnContext(ctx, "no account found for calendar", "calendar_id", calendarID)
			return nil
		}
		return err
	}
	account, revision, err := s.accountRepository.GetAccountWithRevision(ctx, account.UID)
	if err != nil {
		return err
	}

	account.Active = false
	account.LastError = lastError
	account.UpdatedAt = s.now().UTC()
	if err := s.accountRepository.UpdateAccount(ctx, account, revision); err != nil {
		return err
	}

	if removeEvents {
		if err := s.eventRepository.DeleteEventsByCalendar(ctx, calendarID); err != nil {
			slog.ErrorContext(ctx, "failed to clean up cached events for calendar",
				"calendar_id", calendarID,
				logging.ErrKey, err)
		}
	}
	return nil
}

// ListAccountsByUser returns the calendar accounts of a user.
func (s *CalendarService) ListAccountsByUser(ctx context.Context, userID string) ([]*models.CalendarAccount, error) {
	return s.accountRepository.ListAccountsByUser(ctx, userID)
}

// GetAccountByCalendarID returns the account owning a calendar.
func (s *CalendarService) GetAccountByCalendarID(ctx context.Context, calendarID string) (*models.CalendarAccount, error) {
	return s.accountRepository.GetAccountByCalendarID(ctx, calendarID)
}

func (s *CalendarService) findAccount(ctx context.Context, userID string, payload *models.CalendarConnectionPayload) (*models.CalendarAccount, uint64, error) {
	account, err := s.accountRepository.GetAccountByCalendarID(ctx, payload.CalendarID)
	if err != nil {
		return nil, 0, err
	}
	if userID != "" && account.UserID != userID {
		return nil, 0, domain.NewConflictError("calendar is owned by a different user")
	}
	return s.accountRepository.GetAccountWithRevision(ctx, account.UID)
}

func (s *CalendarService) createAccount(ctx context.Context, userID string, payload *models.CalendarConnectionPayload) (*models.CalendarAccount, error) {
	now := s.now().UTC()
	account := &models.CalendarAccount{
		UID:        uuid.New().String(),
		UserID:     userID,
		Provider:   payload.Provider,
		Email:      payload.Email,
		CalendarID: payload.CalendarID,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.accountRepository.CreateAccount(ctx, account); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			// The identity already exists; re-resolve and refresh it instead.
			existing, revision, findErr := s.findAccount(ctx, userID, payload)
			if findErr != nil {
				return nil, err
			}
			existing.CalendarID = payload.CalendarID
			existing.Active = true
			existing.LastError = ""
			existing.UpdatedAt = now
			if updateErr := s.accountRepository.UpdateAccount(ctx, existing, revision); updateErr != nil {
				return nil, updateErr
			}
			return existing, nil
		}
		return nil, err
	}

	slog.InfoContext(ctx, "created calendar account",
		"account_uid", account.UID,
		"calendar_id", account.CalendarID,
		"user_id", account.UserID,
	)
	return account, nil
}

func filterEventsByRange(events []*models.CalendarEvent, from, to time.Time) []*models.CalendarEvent {
	if from.IsZero() && to.IsZero() {
		return events
	}
	filtered := make([]*models.CalendarEvent, 0, len(events))
	for _, event := range events {
		if event.StartTime == nil {
			continue
		}
		if !from.IsZero() && event.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && event.StartTime.After(to) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

func sortEventsByStart(events []*models.CalendarEvent) []*models.CalendarEvent {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].StartTime, events[j].StartTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return events
}
