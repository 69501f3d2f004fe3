// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/version"
)

//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_status.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package status -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestAPI_Status(t *testing.T) {
	tests := []struct {
		name             string
		pingErr          error
		expectedStatus   int
		expectedDatabase string
		availability     float64
	}{
		{name: "healthy", expectedStatus: http.StatusOK, expectedDatabase: "ok", availability: 1},
		{name: "database down", pingErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedDatabase: "unavailable", availability: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDB := NewMockDBPingerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "status.API.alive").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			mockDB.EXPECT().Ping(gomock.Any()).Return(tt.pingErr)
			mockMonitor.EXPECT().SetDependencyAvailability(map[string]string{"component": "database"}, tt.availability).Return(nil)
			if tt.pingErr != nil {
				mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			}

			mux := chi.NewRouter()
			NewAPI(mockDB, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			var body struct {
				Data Status `json:"data"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Data.Database != tt.expectedDatabase {
				t.Errorf("expected database %q, got %q", tt.expectedDatabase, body.Data.Database)
			}
		})
	}
}

func TestAPI_Version(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTracer := NewMockTracingInterface(ctrl)
	mockTracer.EXPECT().Start(gomock.Any(), "status.API.version").
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	mux := chi.NewRouter()
	NewAPI(nil, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl)).RegisterEndpoints(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))

	var body struct {
		Data version.BuildInfo `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Version != version.Version {
		t.Errorf("expected version %s, got %s", version.Version, body.Data.Version)
	}
}
