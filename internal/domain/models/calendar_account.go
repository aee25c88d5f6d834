// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// CalendarAccount is one user's connection to a calendar provider. A user may
// hold several accounts; the user+provider+email combination is unique.
type CalendarAccount struct {
	UID             string    `json:"uid"`
	UserID          string    `json:"user_id"`
	Provider        string    `json:"provider"`
	Email           string    `json:"email"`
	CalendarID      string    `json:"calendar_id,omitempty"`
	EncryptedTokens string    `json:"encrypted_tokens,omitempty"`
	Active          bool      `json:"active"`
	LastError       string    `json:"last_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
