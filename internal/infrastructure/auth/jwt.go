// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates Heimdall-issued JWT tokens on the query endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const (
	// defaultJWKSURL is the default JWKS endpoint of the Heimdall sidecar.
	defaultJWKSURL = "http://heimdall:4457/.well-known/jwks"
	// defaultAudience is the default expected audience claim.
	defaultAudience = "lfx-v2-recorder-service"
	// defaultIssuer is the default expected issuer claim.
	defaultIssuer = "heimdall"
)

// JWTAuthConfig is the configuration for the JWT authentication.
type JWTAuthConfig struct {
	JWKSURL  string
	Audience string
	Issuer   string
	// MockLocalPrincipal bypasses token validation for local development.
	MockLocalPrincipal string
}

// JWTAuth validates bearer tokens and extracts the caller's principal.
type JWTAuth struct {
	config    JWTAuthConfig
	validator *validator.Validator
}

// HeimdallClaims are the custom claims carried by Heimdall-issued tokens.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate implements the [validator.CustomClaims] interface.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// NewJWTAuth creates a new JWT authenticator from the given configuration.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.JWKSURL == "" {
		config.JWKSURL = defaultJWKSURL
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}
	if config.Issuer == "" {
		config.Issuer = defaultIssuer
	}

	jwksURL, err := url.Parse(config.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}

	provider := jwks.NewCachingProvider(jwksURL, 5*time.Minute, jwks.WithCustomJWKSURI(jwksURL))
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		config.Issuer,
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &HeimdallClaims{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up JWT validator: %w", err)
	}

	return &JWTAuth{
		config:    config,
		validator: jwtValidator,
	}, nil
}

// ParsePrincipal validates the bearer token and returns the principal claim.
func (a *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	if a.config.MockLocalPrincipal != "" {
		logger.WarnContext(ctx, "bypassing token validation, returning mock principal",
			"principal", a.config.MockLocalPrincipal,
		)
		return a.config.MockLocalPrincipal, nil
	}

	if a.validator == nil {
		return "", errors.New("JWT validator is not set up")
	}

	parsedJWT, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsedJWT.(*validator.ValidatedClaims)
	if !ok {
		return "", errors.New("unexpected token claims type")
	}
	customClaims, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok {
		return "", errors.New("unexpected custom claims type")
	}
	if err := customClaims.Validate(ctx); err != nil {
		return "", err
	}

	return customClaims.Principal, nil
}
