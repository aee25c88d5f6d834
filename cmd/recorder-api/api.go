// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/service"
)

// RecorderAPI bundles the HTTP surface of the recorder service.
type RecorderAPI struct {
	jwtAuth          *auth.JWTAuth
	webhookService   *service.WebhookService
	meetingService   *service.MeetingService
	calendarService  *service.CalendarService
	schedulerService *service.SchedulerService
	webhookHandler   *handlers.RecorderWebhookHandler
}

func NewRecorderAPI(
	jwtAuth *auth.JWTAuth,
	webhookService *service.WebhookService,
	meetingService *service.MeetingService,
	calendarService *service.CalendarService,
	schedulerService *service.SchedulerService,
	webhookHandler *handlers.RecorderWebhookHandler,
) *RecorderAPI {
	return &RecorderAPI{
		jwtAuth:          jwtAuth,
		webhookService:   webhookService,
		meetingService:   meetingService,
		calendarService:  calendarService,
		schedulerService: schedulerService,
		webhookHandler:   webhookHandler,
	}
}

// Ready reports whether every service behind the API can take requests.
func (api *RecorderAPI) Ready() bool {
	return api.webhookService.ServiceReady() &&
		api.meetingService.ServiceReady() &&
		api.calendarService.ServiceReady() &&
		api.schedulerService.ServiceReady() &&
		api.webhookHandler.HandlerReady()
}

// handleWebhook is the vendor-facing webhook ingress. The raw captured body
// is handed to the service untouched so authentication happens before any
// parsing; the vendor always gets a 200 for events this service chooses not
// to process.
func (api *RecorderAPI) handleWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, ok := middleware.GetRawBodyFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.NewInternalError("webhook body was not captured"))
		return
	}

	if err := api.webhookService.ProcessWebhookEvent(r.Context(), r.Header, rawBody); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetMeetings lists the meetings owned by the authenticated user.
func (api *RecorderAPI) handleGetMeetings(w http.ResponseWriter, r *http.Request) {
	userID, err := api.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	meetings, err := api.meetingService.ListMeetingsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

// handleGetMeeting returns one meeting owned by the authenticated user.
func (api *RecorderAPI) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := api.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	meeting, err := api.meetingService.GetMeeting(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if meeting.UserID != userID {
		writeError(w, r, domain.NewNotFoundError("meeting not found"))
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

// handleGetCalendarEvents serves the cached calendar events of a calendar.
func (api *RecorderAPI) handleGetCalendarEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := api.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	calendarID := chi.URLParam(r, "calendarID")
	if err := api.authorizeCalendar(r, userID, calendarID); err != nil {
		writeError(w, r, err)
		return
	}

	from, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	events, err := api.calendarService.GetCalendarEvents(r.Context(), calendarID, from, to, force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleScheduleCalendar runs an auto-scheduling pass over one calendar.
func (api *RecorderAPI) handleScheduleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := api.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	calendarID := chi.URLParam(r, "calendarID")
	if err := api.authorizeCalendar(r, userID, calendarID); err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := api.schedulerService.ScheduleCalendar(r.Context(), userID, calendarID, r.URL.Query().Get("force") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleScheduleAllCalendars runs an auto-scheduling pass over every active
// calendar of the authenticated user.
func (api *RecorderAPI) handleScheduleAllCalendars(w http.ResponseWriter, r *http.Request) {
	userID, err := api.authenticate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := api.schedulerService.ScheduleAllCalendars(r.Context(), userID, r.URL.Query().Get("force") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (api *RecorderAPI) handleLivez(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (api *RecorderAPI) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !api.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("service not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// authenticate extracts and validates the bearer token, returning the
// principal it carries.
func (api *RecorderAPI) authenticate(r *http.Request) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return "", domain.NewUnauthorizedError("missing bearer token")
	}
	principal, err := api.jwtAuth.ParsePrincipal(r.Context(), token, slog.Default())
	if err != nil {
		return "", domain.NewUnauthorizedError("invalid token", err)
	}
	return principal, nil
}

// authorizeCalendar checks that the calendar belongs to the authenticated
// user. Unknown calendars surface as not found rather than forbidden.
func (api *RecorderAPI) authorizeCalendar(r *http.Request, userID, calendarID string) error {
	if calendarID == "" {
		return domain.NewValidationError("calendar ID is required")
	}
	account, err := api.calendarService.GetAccountByCalendarID(r.Context(), calendarID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return domain.NewNotFoundError("calendar not found")
	}
	return nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("invalid "+name+" parameter", err)
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.With(logging.ErrKey, err).Error("error encoding response")
	}
}

// writeError maps a domain error onto its HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	statuses := map[domain.ErrorType]int{
		domain.ErrorTypeValidation:   http.StatusBadRequest,
		domain.ErrorTypeUnauthorized: http.StatusUnauthorized,
		domain.ErrorTypeNotFound:     http.StatusNotFound,
		domain.ErrorTypeConflict:     http.StatusConflict,
		domain.ErrorTypeAttribution:  http.StatusUnprocessableEntity,
		domain.ErrorTypeRateLimit:    http.StatusTooManyRequests,
		domain.ErrorTypeInternal:     http.StatusInternalServerError,
		domain.ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	}

	status, ok := statuses[domain.GetErrorType(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", logging.ErrKey, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
