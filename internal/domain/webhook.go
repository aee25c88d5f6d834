// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "net/http"

// WebhookAuthenticator validates that an inbound webhook request originates
// from the vendor. Implementations must fail closed: a missing or
// misconfigured credential rejects the request, it never disables the check.
type WebhookAuthenticator interface {
	Authenticate(headers http.Header, body []byte) error
}
