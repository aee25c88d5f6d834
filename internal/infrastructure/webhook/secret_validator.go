// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package webhook contains the authentication schemes for the inbound
// webhook endpoint. Both schemes fail closed: a missing credential on our
// side rejects every request rather than disabling the check.
package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/constants"
)

// SecretValidator authenticates webhooks carrying the per-callback shared
// secret header.
type SecretValidator struct {
	secret string
}

// NewSecretValidator creates a new shared-secret webhook validator
func NewSecretValidator(secret string) *SecretValidator {
	return &SecretValidator{
		secret: secret,
	}
}

// Authenticate checks the shared secret header against the configured value.
func (v *SecretValidator) Authenticate(headers http.Header, _ []byte) error {
	if v.secret == "" {
		// An unconfigured secret must never mean "no auth required".
		return domain.NewInternalError("webhook secret not configured")
	}

	provided := headers.Get(constants.WebhookSecretHeader)
	if provided == "" {
		return domain.NewUnauthorizedError("missing webhook secret header")
	}

	if subtle.ConstantTimeCompare([]byte(provided), []byte(v.secret)) != 1 {
		return domain.NewUnauthorizedError("invalid webhook secret")
	}

	return nil
}
