// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestAuthorizer_CheckOrganizationAccess(t *testing.T) {
	orgID := "org-1"
	userID := "user-1"

	testCases := []struct {
		name          string
		organization  string
		user          string
		minimum       types.Role
		setupMocks    func(*MockStorageInterface, *MockLoggerInterface)
		expectedRole  types.Role
		expectedError error
	}{
		{
			name:         "owner satisfies admin",
			organization: orgID,
			user:         userID,
			minimum:      types.RoleAdmin,
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().GetMembership(gomock.Any(), orgID, userID).
					Return(&types.Membership{OrganizationID: orgID, UserID: userID, Role: types.RoleOwner}, nil)
			},
			expectedRole: types.RoleOwner,
		},
		{
			name:         "exact role is enough",
			organization: orgID,
			user:         userID,
			minimum:      types.RoleMember,
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().GetMembership(gomock.Any(), orgID, userID).
					Return(&types.Membership{OrganizationID: orgID, UserID: userID, Role: types.RoleMember}, nil)
			},
			expectedRole: types.RoleMember,
		},
		{
			name:         "viewer is below admin",
			organization: orgID,
			user:         userID,
			minimum:      types.RoleAdmin,
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().GetMembership(gomock.Any(), orgID, userID).
					Return(&types.Membership{OrganizationID: orgID, UserID: userID, Role: types.RoleViewer}, nil)
			},
			expectedError: ErrForbidden,
		},
		{
			name:         "not a member",
			organization: orgID,
			user:         userID,
			minimum:      types.RoleViewer,
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().GetMembership(gomock.Any(), orgID, userID).Return(nil, storage.ErrNotFound)
			},
			expectedError: ErrForbidden,
		},
		{
			name:          "missing organization",
			organization:  "",
			user:          userID,
			minimum:       types.RoleViewer,
			setupMocks:    func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedError: ErrForbidden,
		},
		{
			name:         "storage failure is returned as is",
			organization: orgID,
			user:         userID,
			minimum:      types.RoleViewer,
			setupMocks: func(s *MockStorageInterface, l *MockLoggerInterface) {
				s.EXPECT().GetMembership(gomock.Any(), orgID, userID).Return(nil, errDB)
				l.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			},
			expectedError: errDB,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockStorage, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.CheckOrganizationAccess").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage, mockLogger)

			membership, err := a.CheckOrganizationAccess(context.Background(), tc.organization, tc.user, tc.minimum)

			if tc.expectedError != nil {
				if !errors.Is(err, tc.expectedError) {
					t.Fatalf("expected error %v, got %v", tc.expectedError, err)
				}
				if membership != nil {
					t.Errorf("expected no membership, got %+v", membership)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if membership.Role != tc.expectedRole {
				t.Errorf("expected role %s, got %s", tc.expectedRole, membership.Role)
			}
		})
	}
}

var errDB = errors.New("connection reset")
