// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

const defaultUserClaim = "sub"

var (
	otelHTTPClient = http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	errNotPermitted = errors.New("unauthorized: missing required scope or subject not allowed")
)

// Policy decides which verified tokens may call the API. An empty policy
// admits every verified token.
type Policy struct {
	AllowedSubjects []string
	RequiredScope   string
	// UserClaim names the claim carrying the workspace user ID, "sub" when empty.
	UserClaim string
}

func (p Policy) permits(subject string, scopes []string) bool {
	if len(p.AllowedSubjects) == 0 && p.RequiredScope == "" {
		return true
	}

	if slices.Contains(p.AllowedSubjects, subject) {
		return true
	}

	return p.RequiredScope != "" && slices.Contains(scopes, p.RequiredScope)
}

func (p Policy) claim() string {
	if p.UserClaim == "" {
		return defaultUserClaim
	}
	return p.UserClaim
}

func (p Policy) userID(claims map[string]interface{}) string {
	id, _ := claims[p.claim()].(string)
	return id
}

// scopes merges the space separated "scope" claim and the "scp" list.
func scopes(claims map[string]interface{}) []string {
	var out []string

	if s, ok := claims["scope"].(string); ok {
		out = append(out, strings.Fields(s)...)
	}

	if list, ok := claims["scp"].([]interface{}); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}

	return out
}

type JWTVerifier struct {
	verifier *oidc.IDTokenVerifier
	policy   Policy

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (string, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}

	claims := make(map[string]interface{})
	if err := token.Claims(&claims); err != nil {
		v.logger.Debugf("failed to extract claims: %v", err)
		return "", err
	}

	if !v.policy.permits(token.Subject, scopes(claims)) {
		v.logger.Security().AuthorizationFailure("", token.Subject, "api_access")
		return "", errNotPermitted
	}

	userID := v.policy.userID(claims)
	if userID == "" {
		return "", fmt.Errorf("token has no %q claim", v.policy.claim())
	}

	return userID, nil
}

// newIDTokenVerifier builds a verifier from a fixed JWKS URL when given,
// otherwise from the issuer's discovery document.
func newIDTokenVerifier(ctx context.Context, issuer, jwksURL string) (*oidc.IDTokenVerifier, error) {
	ctx = oidc.ClientContext(ctx, &otelHTTPClient)
	config := &oidc.Config{SkipClientIDCheck: true}

	if jwksURL != "" {
		return oidc.NewVerifier(issuer, oidc.NewRemoteKeySet(ctx, jwksURL), config), nil
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return provider.Verifier(config), nil
}

func NewJWTVerifier(
	verifier *oidc.IDTokenVerifier,
	policy Policy,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *JWTVerifier {
	v := new(JWTVerifier)

	v.verifier = verifier
	v.policy = policy

	v.tracer = tracer
	v.monitor = monitor
	v.logger = logger

	return v
}
