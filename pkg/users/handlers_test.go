// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func TestAPI_Endpoints(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:   "register",
			method: http.MethodPost,
			path:   "/users",
			body:   map[string]string{"email": "ada@acme.com", "password": "correct horse battery", "first_name": "Ada"},
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Register(gomock.Any(), &RegisterRequest{Email: "ada@acme.com", Password: "correct horse battery", FirstName: "Ada"}).
					Return(&Registration{
						User:         &types.User{ID: "user-1", Email: "ada@acme.com", PasswordHash: "$2a$secret"},
						Organization: &types.Organization{ID: "org-1"},
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
				if _, leaked := user["password_hash"]; leaked {
					t.Error("password hash must not be serialized")
				}
			},
		},
		{
			name:           "register with weak password",
			method:         http.MethodPost,
			path:           "/users",
			body:           map[string]string{"email": "ada@acme.com", "password": "short"},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "register with password beyond the hashing limit",
			method:         http.MethodPost,
			path:           "/users",
			body:           map[string]string{"email": "ada@acme.com", "password": strings.Repeat("a", 100)},
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "register duplicate",
			method: http.MethodPost,
			path:   "/users",
			body:   map[string]string{"email": "ada@acme.com", "password": "correct horse battery"},
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, validation.New("An account with this email already exists"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "current user",
			method: http.MethodGet,
			path:   "/users/me",
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().GetUser(gomock.Any(), "user-1").Return(&types.User{ID: "user-1", Email: "ada@acme.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["data"].(map[string]interface{})["email"] != "ada@acme.com" {
					t.Errorf("unexpected data %v", body["data"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			tracer := NewMockTracingInterface(ctrl)
			tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			).AnyTimes()

			authn := NewMockAuthenticationMiddlewareInterface(ctrl)
			authn.EXPECT().Authenticate().Return(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(authentication.WithUserID(r.Context(), "user-1")))
				})
			}).AnyTimes()

			router := chi.NewRouter()
			NewAPI(mockService, authn, tracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl)).RegisterEndpoints(router)

			var payload bytes.Buffer
			if tt.body != nil {
				if err := json.NewEncoder(&payload).Encode(tt.body); err != nil {
					t.Fatalf("failed to encode body: %v", err)
				}
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, &payload))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if tt.validateBody != nil {
				tt.validateBody(t, body)
			}
		})
	}
}
