// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the recorder service API that ingests recording vendor
// webhooks, reconciles meeting records, and serves the recording query API.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/ai"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/artifacts"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/baas"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/webhook"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/service"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Set up JWT validator needed by the query API endpoints.
	jwtAuth, err := setupJWTAuth()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Initialize vendor clients
	recorderClient := baas.NewClient(baas.Config{
		APIKey:  env.Recorder.APIKey,
		BaseURL: env.Recorder.BaseURL,
	})
	summaryGenerator := ai.NewClient(ai.Config{
		APIKey:  env.AI.APIKey,
		BaseURL: env.AI.BaseURL,
		Model:   env.AI.Model,
	})
	downloader := artifacts.NewHTTPDownloader(2 * time.Minute)

	// Initialize services
	serviceConfig := service.ServiceConfig{
		BotName:           env.BotName,
		SummaryVocabulary: env.SummaryVocabulary,
		IncludeQA:         env.SummaryIncludeQA,
		ScheduleDelay:     env.ScheduleDelay,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	webhookService := service.NewWebhookService(
		messageBuilder,
		webhook.NewSecretValidator(env.WebhookSecret),
		webhook.NewSignatureValidator(env.WebhookSigningKey),
	)
	meetingService := service.NewMeetingService(repos.Meeting, serviceConfig)
	calendarService := service.NewCalendarService(repos.CalendarEvent, repos.CalendarAccount, recorderClient)
	schedulerService := service.NewSchedulerService(calendarService, meetingService, recorderClient, serviceConfig)
	artifactService := service.NewArtifactService(repos.Transcript, repos.Summary, downloader, summaryGenerator, serviceConfig)
	userResolver := service.NewUserResolver(repos.CalendarAccount, repos.Meeting)

	// Initialize handlers
	webhookHandler := handlers.NewRecorderWebhookHandler(
		meetingService,
		calendarService,
		schedulerService,
		artifactService,
		userResolver,
	)

	api := NewRecorderAPI(
		jwtAuth,
		webhookService,
		meetingService,
		calendarService,
		schedulerService,
		webhookHandler,
	)

	httpServer := setupHTTPServer(flags, api, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	err = createNatsSubscriptions(ctx, api, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)
}
