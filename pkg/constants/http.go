// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// WebhookSecretHeader carries the shared webhook secret
	WebhookSecretHeader string = "x-webhook-secret"

	// WebhookIDHeader carries the signed webhook message ID
	WebhookIDHeader string = "webhook-id"

	// WebhookTimestampHeader carries the signed webhook timestamp
	WebhookTimestampHeader string = "webhook-timestamp"

	// WebhookSignatureHeader carries the signed webhook signature
	WebhookSignatureHeader string = "webhook-signature"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// contextAuthorization is the type for the authorization context key
type contextAuthorization string

// AuthorizationContextID is the context ID for the authorization
const AuthorizationContextID contextAuthorization = "authorization"

// contextPrincipal is the type for the principal context key
type contextPrincipal string

// PrincipalContextID is the context ID for the principal
const PrincipalContextID contextPrincipal = "x-on-behalf-of"
