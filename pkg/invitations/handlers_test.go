// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type apiMocks struct {
	service *MockServiceInterface
	logger  *MockLoggerInterface
}

func newTestRouter(ctrl *gomock.Controller, callerRole types.Role) (http.Handler, *apiMocks) {
	m := &apiMocks{
		service: NewMockServiceInterface(ctrl),
		logger:  NewMockLoggerInterface(ctrl),
	}

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	authn := NewMockAuthenticationMiddlewareInterface(ctrl)
	authn.EXPECT().Authenticate().Return(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authentication.WithUserID(r.Context(), testInviterID)))
		})
	}).AnyTimes()

	authz := NewMockAuthorizationMiddlewareInterface(ctrl)
	authz.EXPECT().RequireRole(gomock.Any()).Return(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			membership := &types.Membership{OrganizationID: testOrgID, UserID: testInviterID, Role: callerRole}
			next.ServeHTTP(w, r.WithContext(authorization.WithMembership(r.Context(), membership)))
		})
	}).AnyTimes()

	router := chi.NewRouter()
	NewAPI(m.service, authn, authz, nil, tracer, NewMockMonitorInterface(ctrl), m.logger).RegisterEndpoints(router)

	return router, m
}

func TestAPI_Endpoints(t *testing.T) {
	tests := []struct {
		name           string
		callerRole     types.Role
		method         string
		path           string
		body           interface{}
		setupMocks     func(*apiMocks)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:       "send invitation",
			callerRole: types.RoleAdmin,
			method:     http.MethodPost,
			path:       "/organizations/org-1/invitations",
			body:       map[string]string{"email": "eve@acme.com", "role": "member", "message": "hi"},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().SendOrganizationInvitation(gomock.Any(), &SendRequest{
					Email:          "eve@acme.com",
					OrganizationID: testOrgID,
					Role:           types.RoleMember,
					InviterID:      testInviterID,
					Message:        "hi",
				}).Return(&SendResult{InvitationID: "inv-1", Token: testToken, EmailSent: true}, nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				if data["invitation_id"] != "inv-1" || data["email_sent"] != true {
					t.Errorf("unexpected data %v", data)
				}
			},
		},
		{
			name:           "send invitation with malformed email",
			callerRole:     types.RoleAdmin,
			method:         http.MethodPost,
			path:           "/organizations/org-1/invitations",
			body:           map[string]string{"email": "not-an-email", "role": "member"},
			setupMocks:     func(*apiMocks) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["message"] != "email must be a valid email address" {
					t.Errorf("unexpected message %v", body["message"])
				}
			},
		},
		{
			name:           "admin cannot invite an owner",
			callerRole:     types.RoleAdmin,
			method:         http.MethodPost,
			path:           "/organizations/org-1/invitations",
			body:           map[string]string{"email": "eve@acme.com", "role": "owner"},
			setupMocks:     func(*apiMocks) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:       "owner invites an owner",
			callerRole: types.RoleOwner,
			method:     http.MethodPost,
			path:       "/organizations/org-1/invitations",
			body:       map[string]string{"email": "eve@acme.com", "role": "owner"},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().SendOrganizationInvitation(gomock.Any(), gomock.Any()).Return(&SendResult{InvitationID: "inv-1"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:       "domain rejection is a bad request",
			callerRole: types.RoleAdmin,
			method:     http.MethodPost,
			path:       "/organizations/org-1/invitations",
			body:       map[string]string{"email": "eve@other.org", "role": "viewer"},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().SendOrganizationInvitation(gomock.Any(), gomock.Any()).
					Return(nil, validation.New("Email domain 'other.org' is not allowed. Allowed domains: acme.com"))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["message"] != "Email domain 'other.org' is not allowed. Allowed domains: acme.com" {
					t.Errorf("unexpected message %v", body["message"])
				}
			},
		},
		{
			name:       "unexpected failure is hidden",
			callerRole: types.RoleAdmin,
			method:     http.MethodPost,
			path:       "/organizations/org-1/invitations",
			body:       map[string]string{"email": "eve@acme.com", "role": "viewer"},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().SendOrganizationInvitation(gomock.Any(), gomock.Any()).Return(nil, errors.New("pq: connection refused"))
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["message"] != "internal server error" {
					t.Errorf("unexpected message %v", body["message"])
				}
			},
		},
		{
			name:       "list pending invitations",
			callerRole: types.RoleAdmin,
			method:     http.MethodGet,
			path:       "/organizations/org-1/invitations",
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().GetPendingInvitations(gomock.Any(), testOrgID).
					Return([]*types.Invitation{{ID: "inv-1", Token: "secret", Email: "eve@acme.com"}}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].([]interface{})
				if len(data) != 1 {
					t.Fatalf("expected one invitation, got %v", data)
				}
				if _, leaked := data[0].(map[string]interface{})["token"]; leaked {
					t.Error("token must not be serialized")
				}
			},
		},
		{
			name:       "cancel pending invitation",
			callerRole: types.RoleMember,
			method:     http.MethodDelete,
			path:       "/organizations/org-1/invitations/inv-1",
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().CancelInvitation(gomock.Any(), testOrgID, "inv-1", testInviterID).Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["data"].(map[string]interface{})["cancelled"] != true {
					t.Errorf("unexpected data %v", body["data"])
				}
			},
		},
		{
			name:       "cancel unknown invitation",
			callerRole: types.RoleMember,
			method:     http.MethodDelete,
			path:       "/organizations/org-1/invitations/inv-9",
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().CancelInvitation(gomock.Any(), testOrgID, "inv-9", testInviterID).Return(false, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:       "cancel is scoped to the organization in the path",
			callerRole: types.RoleMember,
			method:     http.MethodDelete,
			path:       "/organizations/org-2/invitations/inv-1",
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().CancelInvitation(gomock.Any(), "org-2", "inv-1", testInviterID).Return(false, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "accept invitation",
			method: http.MethodPost,
			path:   "/invitations/accept",
			body: map[string]string{
				"token":              testToken,
				"temporary_password": testTempPass,
				"new_password":       "correct horse battery",
				"first_name":         "Eve",
			},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().AcceptInvitation(gomock.Any(), &AcceptRequest{
					Token:             testToken,
					TemporaryPassword: testTempPass,
					NewPassword:       "correct horse battery",
					FirstName:         "Eve",
				}).Return(&AcceptResult{UserID: "user-new", OrganizationID: testOrgID, Role: types.RoleMember}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				if body["data"].(map[string]interface{})["user_id"] != "user-new" {
					t.Errorf("unexpected data %v", body["data"])
				}
			},
		},
		{
			name:           "accept with short password",
			method:         http.MethodPost,
			path:           "/invitations/accept",
			body:           map[string]string{"token": testToken, "temporary_password": testTempPass, "new_password": "short"},
			setupMocks:     func(*apiMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "accept with password beyond the hashing limit",
			method:         http.MethodPost,
			path:           "/invitations/accept",
			body:           map[string]string{"token": testToken, "temporary_password": testTempPass, "new_password": strings.Repeat("a", 100)},
			setupMocks:     func(*apiMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "accept with unknown field",
			method:         http.MethodPost,
			path:           "/invitations/accept",
			body:           map[string]string{"token": testToken, "role": "owner"},
			setupMocks:     func(*apiMocks) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "accept used invitation",
			method: http.MethodPost,
			path:   "/invitations/accept",
			body:   map[string]string{"token": testToken, "temporary_password": testTempPass, "new_password": "correct horse battery"},
			setupMocks: func(m *apiMocks) {
				m.service.EXPECT().AcceptInvitation(gomock.Any(), gomock.Any()).Return(nil, validation.New("Invitation has already been used"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			router, m := newTestRouter(ctrl, tt.callerRole)
			tt.setupMocks(m)

			var payload bytes.Buffer
			if tt.body != nil {
				if err := json.NewEncoder(&payload).Encode(tt.body); err != nil {
					t.Fatalf("failed to encode body: %v", err)
				}
			}

			req := httptest.NewRequest(tt.method, tt.path, &payload)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if int(body["status"].(float64)) != tt.expectedStatus {
				t.Errorf("expected status %d in body, got %v", tt.expectedStatus, body["status"])
			}

			if tt.validateBody != nil {
				tt.validateBody(t, body)
			}
		})
	}
}
