// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

// flags are the command line flags for the recorder service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the recorder service.
type environment struct {
	Port              string
	NatsURL           string
	WebhookSecret     string
	WebhookSigningKey string
	Recorder          recorderConfig
	AI                aiConfig
	BotName           string
	SummaryVocabulary []string
	SummaryIncludeQA  bool
	ScheduleDelay     time.Duration
}

// recorderConfig holds the bot-automation vendor configuration.
type recorderConfig struct {
	APIKey  string
	BaseURL string
}

// aiConfig holds the AI completion service configuration.
type aiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// parseFlags parses command line flags for the recorder service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the recorder service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://lfx-platform-nats.lfx.svc.cluster.local:4222"
	}

	var vocabulary []string
	if raw := os.Getenv("SUMMARY_VOCABULARY"); raw != "" {
		for _, term := range strings.Split(raw, ",") {
			if term = strings.TrimSpace(term); term != "" {
				vocabulary = append(vocabulary, term)
			}
		}
	}

	scheduleDelay := time.Second
	if raw := os.Getenv("SCHEDULE_DELAY"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			slog.With(logging.ErrKey, err, "value", raw).Error("invalid SCHEDULE_DELAY provided, using default")
		} else {
			scheduleDelay = parsed
		}
	}

	return environment{
		Port:              port,
		NatsURL:           natsURL,
		WebhookSecret:     os.Getenv("RECORDER_WEBHOOK_SECRET"),
		WebhookSigningKey: os.Getenv("RECORDER_WEBHOOK_SIGNING_KEY"),
		Recorder:          parseRecorderConfig(),
		AI:                parseAIConfig(),
		BotName:           os.Getenv("RECORDER_BOT_NAME"),
		SummaryVocabulary: vocabulary,
		SummaryIncludeQA:  os.Getenv("SUMMARY_INCLUDE_QA") == "true",
		ScheduleDelay:     scheduleDelay,
	}
}

// parseRecorderConfig parses the bot-automation vendor configuration from
// environment variables
func parseRecorderConfig() recorderConfig {
	apiKey := os.Getenv("RECORDER_API_KEY")
	if apiKey == "" {
		slog.Error("RECORDER_API_KEY environment variable is required but not set")
		os.Exit(1)
	}

	baseURL := os.Getenv("RECORDER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.meetingbaas.com"
	}

	return recorderConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
	}
}

// parseAIConfig parses the AI completion service configuration from
// environment variables
func parseAIConfig() aiConfig {
	apiKey := os.Getenv("AI_API_KEY")
	if apiKey == "" {
		slog.Error("AI_API_KEY environment variable is required but not set")
		os.Exit(1)
	}

	baseURL := os.Getenv("AI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return aiConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   os.Getenv("AI_MODEL"),
	}
}
