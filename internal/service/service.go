// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service contains the business logic of the recorder service.
package service

import "time"

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// BotName is the display name bots present when joining calls.
	BotName string
	// SummaryVocabulary carries domain terms passed to summary generation.
	SummaryVocabulary []string
	// IncludeQA enables Q&A pair generation alongside summaries.
	IncludeQA bool
	// ScheduleDelay is the pause between consecutive vendor scheduling calls.
	ScheduleDelay time.Duration
}
