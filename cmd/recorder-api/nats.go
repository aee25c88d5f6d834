// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// natsTimeout bounds the initial NATS connection attempt.
const natsTimeout = 10 * time.Second

// setupNATS establishes the NATS connection used for both messaging and the
// key-value stores. A connection lost beyond reconnection attempts signals
// the done channel so the process restarts cleanly.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Timeout(natsTimeout),
		nats.DrainTimeout(shutdownTimeout),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).DebugContext(ctx, "NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).ErrorContext(ctx, "async NATS error")
			} else {
				slog.With(logging.ErrKey, err).ErrorContext(ctx, "async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			if err := conn.LastError(); err != nil {
				slog.With(logging.ErrKey, err).ErrorContext(ctx, "NATS connection closed")
			} else {
				slog.DebugContext(ctx, "NATS connection closed")
			}
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		return nil, err
	}
	// Counterpart of the Done in the ClosedHandler.
	gracefulCloseWG.Add(1)
	return natsConn, nil
}

// repositories bundles the KV-backed repositories of the service.
type repositories struct {
	Meeting         domain.MeetingRepository
	CalendarEvent   domain.CalendarEventRepository
	CalendarAccount domain.CalendarAccountRepository
	Transcript      domain.TranscriptRepository
	Summary         domain.SummaryRepository
}

// getKeyValueStores creates or binds the JetStream key-value buckets and
// wraps them in the service repositories.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := map[string]jetstream.KeyValue{}
	for _, name := range []string{
		store.KVStoreNameMeetings,
		store.KVStoreNameCalendarEvents,
		store.KVStoreNameCalendarAccounts,
		store.KVStoreNameTranscripts,
		store.KVStoreNameSummaries,
	} {
		bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  name,
			History: 1,
		})
		if err != nil {
			slog.With(logging.ErrKey, err, "bucket", name).ErrorContext(ctx, "error binding key-value bucket")
			return nil, err
		}
		buckets[name] = bucket
	}

	return &repositories{
		Meeting:         store.NewNatsMeetingRepository(buckets[store.KVStoreNameMeetings]),
		CalendarEvent:   store.NewNatsCalendarEventRepository(buckets[store.KVStoreNameCalendarEvents]),
		CalendarAccount: store.NewNatsCalendarAccountRepository(buckets[store.KVStoreNameCalendarAccounts]),
		Transcript:      store.NewNatsTranscriptRepository(buckets[store.KVStoreNameTranscripts]),
		Summary:         store.NewNatsSummaryRepository(buckets[store.KVStoreNameSummaries]),
	}, nil
}

// createNatsSubscriptions queue-subscribes the webhook handler to every
// fan-out subject.
func createNatsSubscriptions(ctx context.Context, api *RecorderAPI, natsConn *nats.Conn) error {
	subjects := []string{
		models.RecorderWebhookBotCompletedSubject,
		models.RecorderWebhookBotFailedSubject,
		models.RecorderWebhookBotStatusChangeSubject,
		models.RecorderWebhookConnectionCreatedSubject,
		models.RecorderWebhookConnectionUpdatedSubject,
		models.RecorderWebhookConnectionDeletedSubject,
		models.RecorderWebhookConnectionErrorSubject,
		models.RecorderWebhookEventsSyncedSubject,
		models.RecorderWebhookEventCreatedSubject,
		models.RecorderWebhookEventUpdatedSubject,
		models.RecorderWebhookEventCancelledSubject,
	}

	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.RecorderAPIQueue, func(msg *nats.Msg) {
			api.webhookHandler.HandleMessage(ctx, messaging.NewNatsMessage(msg))
		})
		if err != nil {
			slog.With(logging.ErrKey, err, "subject", subject).ErrorContext(ctx, "error creating NATS subscription")
			return err
		}
		slog.With("subject", subject, "queue", models.RecorderAPIQueue).DebugContext(ctx, "created NATS subscription")
	}
	return nil
}

// shutdownTimeout bounds the graceful shutdown of the HTTP server and the
// NATS drain.
const shutdownTimeout = 25 * time.Second

// gracefulShutdown stops the HTTP listener, drains the NATS connection so
// in-flight messages finish, and waits for both to complete.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down http server")
	}
	gracefulCloseWG.Done()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
			// Close still fires the ClosedHandler, which releases the wait group.
			natsConn.Close()
		}
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}
