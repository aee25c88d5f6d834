// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/pkg/constants"
)

// signatureTimestampTolerance bounds how old a signed webhook may be before
// it is rejected as a possible replay.
const signatureTimestampTolerance = 5 * time.Minute

// SignatureValidator authenticates webhooks carrying the signed-envelope
// header triplet (message ID, timestamp, signature). The signature is an
// HMAC-SHA256 over "<id>.<timestamp>.<body>".
type SignatureValidator struct {
	signingKey []byte
	now        func() time.Time
}

// NewSignatureValidator creates a new signed-envelope webhook validator
func NewSignatureValidator(signingKey string) *SignatureValidator {
	var key []byte
	if signingKey != "" {
		key = []byte(signingKey)
	}
	return &SignatureValidator{
		signingKey: key,
		now:        time.Now,
	}
}

// Authenticate verifies the signed-envelope headers of the request.
func (v *SignatureValidator) Authenticate(headers http.Header, body []byte) error {
	if len(v.signingKey) == 0 {
		// An unconfigured signing key must never mean unsigned payloads are
		// accepted.
		return domain.NewInternalError("webhook signing key not configured")
	}

	msgID := headers.Get(constants.WebhookIDHeader)
	timestamp := headers.Get(constants.WebhookTimestampHeader)
	signature := headers.Get(constants.WebhookSignatureHeader)
	if msgID == "" || timestamp == "" || signature == "" {
		return domain.NewUnauthorizedError("missing webhook signature headers")
	}

	// Replay protection.
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.NewUnauthorizedError("invalid webhook timestamp", err)
	}
	age := v.now().Unix() - ts
	if age > int64(signatureTimestampTolerance.Seconds()) || age < -int64(signatureTimestampTolerance.Seconds()) {
		return domain.NewUnauthorizedError("webhook timestamp outside tolerance")
	}

	message := fmt.Sprintf("%s.%s.%s", msgID, timestamp, string(body))
	h := hmac.New(sha256.New, v.signingKey)
	h.Write([]byte(message))
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))

	// The signature header may carry several space-separated versioned
	// signatures (e.g. "v1,<base64> v1,<base64>"); any match accepts.
	for _, candidate := range strings.Split(signature, " ") {
		parts := strings.SplitN(candidate, ",", 2)
		provided := parts[len(parts)-1]
		if hmac.Equal([]byte(provided), []byte(expected)) {
			return nil
		}
	}

	return domain.NewUnauthorizedError("invalid webhook signature")
}
