// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package baas contains the HTTP client for the bot-automation and calendar
// vendor API.
package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

const (
	// DefaultClientTimeout is the default HTTP client timeout for vendor API requests
	DefaultClientTimeout = 30 * time.Second
	// Default retry configuration
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	// MaxRetryDelay caps the exponential backoff between attempts
	MaxRetryDelay = 30 * time.Second

	// apiKeyHeader carries the vendor API key on every request
	apiKeyHeader = "x-api-key"
)

// Config holds the configuration for the vendor API client
type Config struct {
	APIKey  string
	BaseURL string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: retry configuration
	MaxRetries int
	BaseDelay  time.Duration
}

// Client represents a vendor API client
type Client struct {
	httpClient *http.Client
	config     Config
}

// Ensure that Client implements domain.RecorderClient
var _ domain.RecorderClient = (*Client)(nil)

// NewClient creates a new vendor API client
func NewClient(config Config) *Client {
	// Set defaults if not provided
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = DefaultBaseDelay
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// retryDelay returns the backoff before retry attempt n: the base delay
// doubled per attempt, capped at MaxRetryDelay.
func retryDelay(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := base << uint(attempt)
	if delay <= 0 || delay > MaxRetryDelay {
		return MaxRetryDelay
	}
	return delay
}

// retryAfterDelay extracts a server-supplied Retry-After value from a 429
// response. Returns 0 when the header is absent or unusable.
func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

// shouldRetry determines if an error or HTTP status code should be retried
func shouldRetry(statusCode int, err error) bool {
	// Don't retry if context was cancelled
	if err != nil {
		if ctx, ok := err.(interface{ Err() error }); ok {
			if ctx.Err() == context.Canceled || ctx.Err() == context.DeadlineExceeded {
				return false
			}
		}
	}

	// Retry on network/connection errors
	if err != nil {
		return true
	}

	// Retry on server errors (5xx)
	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	// Retry on rate limiting (429)
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	// Validation and other client errors (4xx) are never retried
	return false
}

// doRequest performs an authenticated HTTP request to the vendor API with
// retry logic. A 429 carrying a Retry-After header is honored once without
// counting against the retry budget.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	jsonBody, err := c.marshalRequestBody(body)
	if err != nil {
		return nil, err
	}

	url := c.config.BaseURL + path
	var lastErr error
	var lastResp *http.Response
	honoredRetryAfter := false

	for attempt := 0; attempt <= c.config.MaxRetries; {
		req, err := c.createRequest(ctx, method, url, jsonBody)
		if err != nil {
			return nil, err
		}

		c.logRequestAttempt(ctx, method, path, attempt)

		startTime := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(startTime)

		if c.isRequestSuccessful(err, resp) {
			// A retry that succeeds supersedes the stored failure response,
			// whose body must still be closed.
			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			c.logResponse(ctx, method, path, resp, duration, attempt)
			return resp, nil
		}

		lastErr, lastResp = err, c.closeAndReplaceResponse(lastResp, resp)
		statusCode := c.extractStatusCode(resp)

		if statusCode == http.StatusTooManyRequests && !honoredRetryAfter {
			if wait := retryAfterDelay(resp); wait > 0 {
				honoredRetryAfter = true
				slog.WarnContext(ctx, "vendor API rate limited, honoring Retry-After",
					"method", method,
					"path", path,
					"retry_after", wait.String(),
				)
				if err := c.sleep(ctx, wait, lastResp); err != nil {
					return nil, err
				}
				continue
			}
		}

		if !shouldRetry(statusCode, err) {
			c.logNonRetryableError(ctx, method, path, statusCode, duration, attempt, err)
			break
		}

		if attempt >= c.config.MaxRetries {
			c.logFinalFailure(ctx, method, path, statusCode, duration, attempt, err)
			break
		}

		backoff := retryDelay(attempt, c.config.BaseDelay)
		slog.WarnContext(ctx, "vendor API request failed, retrying",
			"method", method,
			"path", path,
			"status", statusCode,
			"duration", duration.String(),
			"attempt", attempt+1,
			"max_retries", c.config.MaxRetries,
			"backoff", backoff.String(),
			logging.ErrKey, err)
		if err := c.sleep(ctx, backoff, lastResp); err != nil {
			return nil, err
		}
		attempt++
	}

	return c.handleFinalResult(ctx, method, path, lastErr, lastResp)
}

// marshalRequestBody marshals the request body to JSON
func (c *Client) marshalRequestBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return jsonBody, nil
}

// createRequest creates a new HTTP request carrying the API key
func (c *Client) createRequest(ctx context.Context, method, url string, jsonBody []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.config.APIKey)
	return req, nil
}

// sleep waits for the given duration, aborting on context cancellation
func (c *Client) sleep(ctx context.Context, wait time.Duration, lastResp *http.Response) error {
	select {
	case <-ctx.Done():
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// logRequestAttempt logs the request attempt
func (c *Client) logRequestAttempt(ctx context.Context, method, path string, attempt int) {
	if attempt == 0 {
		slog.DebugContext(ctx, "making vendor API request",
			"method", method,
			"path", path,
			"max_retries", c.config.MaxRetries,
		)
	} else {
		slog.DebugContext(ctx, "retrying vendor API request",
			"method", method,
			"path", path,
			"attempt", attempt,
			"max_retries", c.config.MaxRetries,
		)
	}
}

// isRequestSuccessful checks if a request was successful (no error and not a server error/rate limit)
func (c *Client) isRequestSuccessful(err error, resp *http.Response) bool {
	return err == nil && resp != nil && resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests
}

// closeAndReplaceResponse closes the old response if it exists and returns the new one
func (c *Client) closeAndReplaceResponse(oldResp, newResp *http.Response) *http.Response {
	if oldResp != nil {
		_ = oldResp.Body.Close()
	}
	return newResp
}

// extractStatusCode safely extracts the status code from a response
func (c *Client) extractStatusCode(resp *http.Response) int {
	if resp != nil {
		return resp.StatusCode
	}
	return 0
}

// logResponse logs completed responses
func (c *Client) logResponse(ctx context.Context, method, path string, resp *http.Response, duration time.Duration, attempt int) {
	slog.InfoContext(ctx, "vendor API request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", duration.String(),
		"attempt", attempt+1,
	)

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		slog.ErrorContext(ctx, "vendor API error response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration", duration.String(),
			"body", string(body),
			logging.ErrKey, fmt.Errorf("status: %d", resp.StatusCode))
	}
}

// logNonRetryableError logs errors that should not be retried
func (c *Client) logNonRetryableError(ctx context.Context, method, path string, statusCode int, duration time.Duration, attempt int, err error) {
	if err != nil {
		slog.ErrorContext(ctx, "vendor API request failed (not retryable)",
			"method", method,
			"path", path,
			"duration", duration.String(),
			"attempt", attempt+1,
			logging.ErrKey, err)
	} else {
		slog.ErrorContext(ctx, "vendor API request failed (not retryable)",
			"method", method,
			"path", path,
			"status", statusCode,
			"duration", duration.String(),
			"attempt", attempt+1)
	}
}

// logFinalFailure logs the final failure after all retries
func (c *Client) logFinalFailure(ctx context.Context, method, path string, statusCode int, duration time.Duration, attempt int, err error) {
	slog.ErrorContext(ctx, "vendor API request failed after all retries",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration", duration.String(),
		"attempts", attempt+1,
		"max_retries", c.config.MaxRetries,
		logging.ErrKey, err,
		logging.PriorityCritical())
}

// handleFinalResult handles the final result after all retry attempts
func (c *Client) handleFinalResult(ctx context.Context, method, path string, lastErr error, lastResp *http.Response) (*http.Response, error) {
	if lastErr != nil {
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		return nil, domain.NewUnavailableError(
			fmt.Sprintf("vendor API request failed after %d attempts", c.config.MaxRetries+1), lastErr)
	}

	if lastResp != nil && lastResp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(lastResp.Body)
		_ = lastResp.Body.Close()
		lastResp.Body = io.NopCloser(bytes.NewReader(body))
		slog.ErrorContext(ctx, "vendor API error response after all retries",
			"method", method,
			"path", path,
			"status", lastResp.StatusCode,
			"body", string(body),
			logging.ErrKey, fmt.Errorf("status: %d", lastResp.StatusCode))
	}

	return lastResp, nil
}

// checkResponse maps an error response to the domain error taxonomy. The
// caller owns the response body.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	message := parseErrorMessage(body, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewUnauthorizedError(message)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(message)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewRateLimitError(message)
	case resp.StatusCode >= 500:
		return domain.NewUnavailableError(message)
	default:
		return domain.NewValidationError(message)
	}
}

// parseErrorMessage attempts to parse a vendor API error response
func parseErrorMessage(body []byte, statusCode int) string {
	var errResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Sprintf("vendor API error (status %d): %s", statusCode, errResp.Message)
	}
	return fmt.Sprintf("vendor API error (status %d)", statusCode)
}

// decodeResponse decodes a successful JSON response body into the given type
func decodeResponse[T any](resp *http.Response) (*T, error) {
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var result T
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewInternalError("failed to decode vendor API response", err)
	}
	return &result, nil
}

// drainResponse consumes a response where only the status matters
func drainResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	return checkResponse(resp)
}
