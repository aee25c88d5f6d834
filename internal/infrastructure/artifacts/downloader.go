// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package artifacts fetches recording artifacts from vendor-issued URLs.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-recorder-service/internal/logging"
)

const (
	// DefaultDownloadTimeout bounds a single artifact download
	DefaultDownloadTimeout = 2 * time.Minute
	// maxArtifactSize caps how much of an artifact is read into memory
	maxArtifactSize = 256 << 20
)

// HTTPDownloader downloads artifacts over plain HTTP. The vendor issues
// pre-signed URLs, so no credentials are attached.
type HTTPDownloader struct {
	httpClient *http.Client
}

// Ensure that HTTPDownloader implements domain.ArtifactDownloader
var _ domain.ArtifactDownloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader creates a new artifact downloader
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout == 0 {
		timeout = DefaultDownloadTimeout
	}
	return &HTTPDownloader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Download fetches the artifact at the given URL.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, domain.NewValidationError("artifact URL is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewValidationError("invalid artifact URL", err)
	}

	startTime := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "artifact download failed",
			"duration", time.Since(startTime).String(),
			logging.ErrKey, err)
		return nil, domain.NewUnavailableError("artifact download failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status: %d", resp.StatusCode)
		slog.ErrorContext(ctx, "artifact download returned error status",
			"status", resp.StatusCode,
			"duration", time.Since(startTime).String(),
			logging.ErrKey, err)
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.NewNotFoundError("artifact not found", err)
		}
		return nil, domain.NewUnavailableError("artifact download returned error status", err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, domain.NewUnavailableError("failed to read artifact body", err)
	}

	slog.DebugContext(ctx, "artifact downloaded",
		"size", len(data),
		"duration", time.Since(startTime).String(),
	)
	return data, nil
}
