// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

// Config selects how bearer tokens are verified.
type Config struct {
	Enabled bool
	Issuer  string
	JWKSURL string
	Policy  Policy
}

// NewAuthenticator returns the verifier described by cfg. With
// authentication disabled every non-empty token is taken as a user ID.
func NewAuthenticator(
	ctx context.Context,
	cfg Config,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (TokenVerifierInterface, error) {
	if !cfg.Enabled {
		logger.Warn("authentication is disabled, bearer tokens are trusted as user IDs")
		return NewNoopVerifier(), nil
	}

	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required for JWT authentication")
	}

	if cfg.JWKSURL != "" {
		logger.Infof("Using JWKS URL %s for issuer %s", cfg.JWKSURL, cfg.Issuer)
	} else {
		logger.Infof("Using OIDC discovery for issuer %s", cfg.Issuer)
	}

	verifier, err := newIDTokenVerifier(ctx, cfg.Issuer, cfg.JWKSURL)
	if err != nil {
		return nil, err
	}

	return NewJWTVerifier(verifier, cfg.Policy, tracer, monitor, logger), nil
}
