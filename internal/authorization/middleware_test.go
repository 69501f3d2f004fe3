// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

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

	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func TestMiddleware_RequireRole(t *testing.T) {
	tests := []struct {
		name               string
		userID             string
		setupMocks         func(*MockAuthorizerInterface, *MockLoggerInterface, *MockSecurityLoggerInterface)
		expectedStatusCode int
	}{
		{
			name:   "member passes",
			userID: "user-1",
			setupMocks: func(a *MockAuthorizerInterface, _ *MockLoggerInterface, _ *MockSecurityLoggerInterface) {
				a.EXPECT().CheckOrganizationAccess(gomock.Any(), "org-1", "user-1", types.RoleAdmin).
					Return(&types.Membership{OrganizationID: "org-1", UserID: "user-1", Role: types.RoleAdmin}, nil)
			},
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "no identity",
			userID:             "",
			setupMocks:         func(*MockAuthorizerInterface, *MockLoggerInterface, *MockSecurityLoggerInterface) {},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:   "insufficient role is audited",
			userID: "user-1",
			setupMocks: func(a *MockAuthorizerInterface, l *MockLoggerInterface, sl *MockSecurityLoggerInterface) {
				a.EXPECT().CheckOrganizationAccess(gomock.Any(), "org-1", "user-1", types.RoleAdmin).Return(nil, ErrForbidden)
				l.EXPECT().Security().Return(sl)
				sl.EXPECT().AuthorizationFailure("org-1", "user-1", "admin")
			},
			expectedStatusCode: http.StatusForbidden,
		},
		{
			name:   "lookup failure",
			userID: "user-1",
			setupMocks: func(a *MockAuthorizerInterface, _ *MockLoggerInterface, _ *MockSecurityLoggerInterface) {
				a.EXPECT().CheckOrganizationAccess(gomock.Any(), "org-1", "user-1", types.RoleAdmin).Return(nil, errors.New("boom"))
			},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAuthorizer := NewMockAuthorizerInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)

			ctx := context.Background()
			if tt.userID != "" {
				ctx = authentication.WithUserID(ctx, tt.userID)
			}

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Middleware.RequireRole").
				Return(ctx, trace.SpanFromContext(ctx))
			tt.setupMocks(mockAuthorizer, mockLogger, mockSecurity)

			m := NewMiddleware(mockAuthorizer, mockTracer, mockMonitor, mockLogger)

			var seen *types.Membership
			router := chi.NewRouter()
			router.With(m.RequireRole(types.RoleAdmin)).Get("/organizations/{organization_id}", func(w http.ResponseWriter, r *http.Request) {
				seen, _ = MembershipFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/organizations/org-1", nil).WithContext(ctx)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatusCode {
				t.Fatalf("expected status %d, got %d", tt.expectedStatusCode, rr.Code)
			}

			if tt.expectedStatusCode == http.StatusOK {
				if seen == nil || seen.Role != types.RoleAdmin {
					t.Errorf("expected admin membership in context, got %+v", seen)
				}
				return
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if int(body["status"].(float64)) != tt.expectedStatusCode {
				t.Errorf("expected status %d in body, got %v", tt.expectedStatusCode, body["status"])
			}
		})
	}
}
