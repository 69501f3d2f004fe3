// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func newTestRouter() http.Handler {
	return NewRouter(
		Config{AcceptRateLimit: RateLimitConfig{RequestsPerMinute: 1, Burst: 1}},
		Dependencies{Verifier: authentication.NewNoopVerifier()},
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("workspace-service"),
		logging.NewNoopLogger(),
	)
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "version is public", method: http.MethodGet, path: "/api/v0/version", expectedStatus: http.StatusOK},
		{name: "metrics are public", method: http.MethodGet, path: "/api/v0/metrics", expectedStatus: http.StatusOK},
		{name: "organizations require a token", method: http.MethodGet, path: "/api/v0/organizations", expectedStatus: http.StatusUnauthorized},
		{name: "notifications require a token", method: http.MethodGet, path: "/api/v0/notifications", expectedStatus: http.StatusUnauthorized},
		{name: "current user requires a token", method: http.MethodGet, path: "/api/v0/users/me", expectedStatus: http.StatusUnauthorized},
		{name: "registration validates the body", method: http.MethodPost, path: "/api/v0/users", body: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "unversioned path", method: http.MethodGet, path: "/organizations", expectedStatus: http.StatusNotFound},
	}

	router := newTestRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRouter_AcceptIsRateLimited(t *testing.T) {
	router := newTestRouter()

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v0/invitations/accept", strings.NewReader(`{}`))
		req.RemoteAddr = "192.0.2.10:5555"

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send(); code != http.StatusBadRequest {
		t.Fatalf("expected first request to reach the handler, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
}
