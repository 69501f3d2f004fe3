// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_users.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

var testHasher = credentials.NewHasher(bcrypt.MinCost)

func newTestService(ctrl *gomock.Controller) (*Service, *MockStorageInterface, *MockLoggerInterface) {
	mockStorage := NewMockStorageInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()

	tx := NewMockTxManagerInterface(ctrl)
	tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	return NewService(mockStorage, tx, testHasher, tracer, NewMockMonitorInterface(ctrl), mockLogger), mockStorage, mockLogger
}

func TestService_Register(t *testing.T) {
	user := &types.User{ID: "user-1", Email: "ada@acme.com", FirstName: "Ada"}
	org := &types.Organization{ID: "org-1", Name: "Ada's Organization"}
	dbErr := errors.New("db error")

	tests := []struct {
		name        string
		req         *RegisterRequest
		setupMocks  func(*MockStorageInterface, *MockLoggerInterface)
		expectedErr func(error) bool
	}{
		{
			name: "user and personal organization",
			req:  &RegisterRequest{Email: " Ada@Acme.com ", Password: "correct horse battery", FirstName: "Ada", LastName: "Lovelace"},
			setupMocks: func(s *MockStorageInterface, l *MockLoggerInterface) {
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, u *types.User) (*types.User, error) {
						if u.Email != "ada@acme.com" || !u.Active || u.EmailVerified {
							t.Errorf("unexpected user %+v", u)
						}
						if !testHasher.Verify("correct horse battery", u.PasswordHash) {
							t.Error("password must be stored hashed")
						}
						return user, nil
					},
				)
				s.EXPECT().CreateOrganization(gomock.Any(), &types.Organization{
					Name:           "Ada's Organization",
					AllowedDomains: []string{},
					CreatedBy:      "user-1",
				}).Return(org, nil)
				s.EXPECT().AddMember(gomock.Any(), &types.Membership{
					OrganizationID: "org-1",
					UserID:         "user-1",
					Role:           types.RoleOwner,
				}).Return(&types.Membership{ID: "m-1"}, nil)
				l.EXPECT().Infof(gomock.Any(), gomock.Any()).Times(1)
			},
		},
		{
			name: "organization named after email without first name",
			req:  &RegisterRequest{Email: "grace@acme.com", Password: "correct horse battery"},
			setupMocks: func(s *MockStorageInterface, l *MockLoggerInterface) {
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user, nil)
				s.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, o *types.Organization) (*types.Organization, error) {
						if o.Name != "grace's Organization" {
							t.Errorf("unexpected name %q", o.Name)
						}
						return org, nil
					},
				)
				s.EXPECT().AddMember(gomock.Any(), gomock.Any()).Return(&types.Membership{}, nil)
				l.EXPECT().Infof(gomock.Any(), gomock.Any()).Times(1)
			},
		},
		{
			name: "duplicate email",
			req:  &RegisterRequest{Email: "ada@acme.com", Password: "correct horse battery"},
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey)
			},
			expectedErr: validation.IsValidationError,
		},
		{
			name: "organization failure",
			req:  &RegisterRequest{Email: "ada@acme.com", Password: "correct horse battery"},
			setupMocks: func(s *MockStorageInterface, _ *MockLoggerInterface) {
				s.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user, nil)
				s.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(nil, dbErr)
			},
			expectedErr: func(err error) bool { return errors.Is(err, dbErr) },
		},
		{
			name:        "blank email",
			req:         &RegisterRequest{Email: "  ", Password: "correct horse battery"},
			setupMocks:  func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedErr: validation.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, mockStorage, mockLogger := newTestService(ctrl)
			tt.setupMocks(mockStorage, mockLogger)

			reg, err := svc.Register(context.Background(), tt.req)
			if tt.expectedErr != nil {
				if err == nil || !tt.expectedErr(err) {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reg.User.ID != "user-1" || reg.Organization.ID != "org-1" {
				t.Errorf("unexpected registration %+v", reg)
			}
		})
	}
}

func TestService_GetUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockStorage, _ := newTestService(ctrl)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), "user-9").Return(nil, storage.ErrNotFound)

	if _, err := svc.GetUser(context.Background(), "user-9"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
