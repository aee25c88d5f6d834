// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/middleware"
)

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, api *RecorderAPI, gracefulCloseWG *sync.WaitGroup) *http.Server {
	router := chi.NewRouter()

	router.Post("/webhooks/recorder", api.handleWebhook)

	router.Get("/meetings", api.handleGetMeetings)
	router.Get("/meetings/{uid}", api.handleGetMeeting)
	router.Get("/calendars/{calendarID}/events", api.handleGetCalendarEvents)
	router.Post("/calendars/{calendarID}/schedule", api.handleScheduleCalendar)
	router.Post("/calendars/schedule", api.handleScheduleAllCalendars)

	router.Get("/livez", api.handleLivez)
	router.Get("/readyz", api.handleReadyz)

	var handler http.Handler = router

	// Add HTTP middleware
	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.WebhookBodyCaptureMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = middleware.AuthorizationMiddleware()(handler)

	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
