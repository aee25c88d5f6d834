// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/utils"
)

// DefaultScheduleDelay spaces out consecutive vendor schedule-bot calls.
const DefaultScheduleDelay = time.Second

// ScheduleSummary reports the outcome of one auto-scheduling pass. The
// summary is always produced, even when individual events failed.
type ScheduleSummary struct {
	Scheduled int      `json:"scheduled"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// SchedulerService walks calendar events and schedules recording bots for
// the eligible ones, seeding a placeholder meeting for each.
type SchedulerService struct {
	calendarService *CalendarService
	meetingService  *MeetingService
	recorderClient  domain.RecorderClient
	config          ServiceConfig
	now             func() time.Time
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewSchedulerService creates a new SchedulerService
func NewSchedulerService(
	calendarService *CalendarService,
	meetingService *MeetingService,
	recorderClient domain.RecorderClient,
	config ServiceConfig,
) *SchedulerService {
	if config.ScheduleDelay <= 0 {
		config.ScheduleDelay = DefaultScheduleDelay
	}
	return &SchedulerService{
		calendarService: calendarService,
		meetingService:  meetingService,
		recorderClient:  recorderClient,
		config:          config,
		now:             time.Now,
		sleep:           sleepContext,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *SchedulerService) ServiceReady() bool {
	return s.calendarService != nil && s.meetingService != nil && s.recorderClient != nil
}

// ScheduleCalendar schedules bots for the eligible events of one calendar.
// Failures on individual events are accumulated into the summary rather than
// aborting the pass. The force flag bypasses the event cache.
func (s *SchedulerService) ScheduleCalendar(ctx context.Context, userID, calendarID string, force bool) (*ScheduleSummary, error) {
	ctx = logging.AppendCtx(ctx, slog.String("calendar_id", calendarID))

	events, err := s.calendarService.GetCalendarEvents(ctx, calendarID, time.Time{}, time.Time{}, force)
	if err != nil {
		return nil, err
	}

	summary := &ScheduleSummary{}
	for i, event := range events {
		if skip, reason := s.shouldSkip(event); skip {
			slog.DebugContext(ctx, "skipping calendar event",
				"calendar_event_id", event.EventID,
				"reason", reason,
			)
			summary.Skipped++
			continue
		}

		// Spacing between vendor calls keeps a large calendar from
		// tripping the vendor's rate limits in one burst.
		if i > 0 {
			if err := s.sleep(ctx, s.config.ScheduleDelay); err != nil {
				return summary, err
			}
		}

		if err := s.scheduleEvent(ctx, userID, calendarID, event); err != nil {
			slog.ErrorContext(ctx, "failed to schedule bot for calendar event",
				"calendar_event_id", event.EventID,
				logging.ErrKey, err)
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", event.EventID, err))
			continue
		}
		summary.Scheduled++
	}

	slog.InfoContext(ctx, "auto-scheduling pass finished",
		"scheduled", summary.Scheduled,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// ScheduleAllCalendars runs a scheduling pass over every active calendar of a
// user and merges the per-calendar summaries.
func (s *SchedulerService) ScheduleAllCalendars(ctx context.Context, userID string, force bool) (*ScheduleSummary, error) {
	accounts, err := s.calendarService.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := &ScheduleSummary{}
	for _, account := range accounts {
		if !account.Active {
			continue
		}
		summary, err := s.ScheduleCalendar(ctx, userID, account.CalendarID, force)
		if summary != nil {
			total.Scheduled += summary.Scheduled
			total.Failed += summary.Failed
			total.Skipped += summary.Skipped
			total.Errors = append(total.Errors, summary.Errors...)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// scheduleEvent issues the vendor schedule-bot call for one event and seeds
// the placeholder meeting tracking it.
func (s *SchedulerService) scheduleEvent(ctx context.Context, userID, calendarID string, event *models.CalendarEvent) error {
	correlation := models.NewCorrelation(userID, calendarID, event.EventID)
	_, err := s.recorderClient.ScheduleBot(ctx, &domain.ScheduleBotRequest{
		CalendarID:     calendarID,
		EventID:        event.EventID,
		BotName:        s.config.BotName,
		AllOccurrences: event.IsRecurring(),
		Correlation:    correlation,
	})
	if err != nil {
		return err
	}

	event.BotScheduled = true
	if err := s.calendarService.CacheEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to update cached event after scheduling",
			"calendar_event_id", event.EventID,
			logging.ErrKey, err)
	}

	if _, err := s.meetingService.CreatePlaceholderMeeting(ctx, userID, event); err != nil {
		// The bot is already scheduled on the vendor side; the webhook
		// reconciliation will create the meeting if this seed failed.
		slog.ErrorContext(ctx, "failed to seed placeholder meeting",
			"calendar_event_id", event.EventID,
			logging.ErrKey, err)
	}
	return nil
}

// shouldSkip applies the eligibility rules: the event needs a meeting URL,
// must not already have a bot, and must start in the future. For recurring
// series the next occurrence decides.
func (s *SchedulerService) shouldSkip(event *models.CalendarEvent) (bool, string) {
	if event.MeetingURL == "" {
		return true, "no meeting URL"
	}
	if event.BotScheduled || event.SeriesBotScheduled {
		return true, "bot already scheduled"
	}

	now := s.now().UTC()
	start := s.nextOccurrence(event, now)
	if start == nil {
		return true, "no upcoming occurrence"
	}
	if !start.After(now) {
		return true, "event already started"
	}
	return false, ""
}

// nextOccurrence resolves the start time that decides eligibility. One-off
// events use their start time directly; recurring series expand the
// recurrence rule to find the first occurrence after now.
func (s *SchedulerService) nextOccurrence(event *models.CalendarEvent, now time.Time) *time.Time {
	if !event.IsRecurring() || event.Recurrence == "" {
		return event.StartTime
	}

	rule, err := rrule.StrToRRule(event.Recurrence)
	if err != nil {
		slog.Warn("unparseable recurrence rule, using event start time",
			"calendar_event_id", event.EventID,
			logging.ErrKey, err)
		return event.StartTime
	}
	if event.StartTime != nil {
		rule.DTStart(event.StartTime.UTC())
	}

	next := rule.After(now, false)
	if next.IsZero() {
		return nil
	}
	return utils.TimePtr(next)
}

// sleepContext sleeps for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
