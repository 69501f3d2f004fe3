// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organizations

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

//go:generate mockgen -build_flags=--mod=mod -package organizations -destination ./mock_organizations.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organizations -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organizations -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package organizations -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	testOrgID   = "org-1"
	testOwnerID = "user-owner"
)

var (
	testOrg   = &types.Organization{ID: testOrgID, Name: "Acme"}
	testOwner = &types.Membership{OrganizationID: testOrgID, UserID: testOwnerID, Role: types.RoleOwner}
	testAdmin = &types.Membership{OrganizationID: testOrgID, UserID: "user-admin", Role: types.RoleAdmin}
	errDB     = errors.New("db error")
)

type serviceMocks struct {
	storage  *MockStorageInterface
	tx       *MockTxManagerInterface
	notifier *MockNotifierInterface
	logger   *MockLoggerInterface
}

func newTestService(ctrl *gomock.Controller) (*Service, *serviceMocks) {
	m := &serviceMocks{
		storage:  NewMockStorageInterface(ctrl),
		tx:       NewMockTxManagerInterface(ctrl),
		notifier: NewMockNotifierInterface(ctrl),
		logger:   NewMockLoggerInterface(ctrl),
	}

	tracer := NewMockTracingInterface(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()
	m.tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	return NewService(m.storage, m.tx, m.notifier, tracer, NewMockMonitorInterface(ctrl), m.logger), m
}

func TestService_CreateOrganization(t *testing.T) {
	tests := []struct {
		name        string
		req         *OrganizationRequest
		setupMocks  func(*serviceMocks)
		expectedErr func(error) bool
	}{
		{
			name: "creator becomes owner",
			req:  &OrganizationRequest{Name: "  Acme ", Domain: "Acme.COM", AllowedDomains: []string{"acme.com", " ACME.com", "acme.io"}},
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().CreateOrganization(gomock.Any(), &types.Organization{
					Name:           "Acme",
					Domain:         "acme.com",
					AllowedDomains: []string{"acme.com", "acme.io"},
					CreatedBy:      testOwnerID,
				}).Return(testOrg, nil)
				m.storage.EXPECT().AddMember(gomock.Any(), &types.Membership{
					OrganizationID: testOrgID,
					UserID:         testOwnerID,
					Role:           types.RoleOwner,
				}).Return(testOwner, nil)
			},
		},
		{
			name:        "blank name",
			req:         &OrganizationRequest{Name: "   "},
			setupMocks:  func(*serviceMocks) {},
			expectedErr: validation.IsValidationError,
		},
		{
			name: "owner insert failure aborts",
			req:  &OrganizationRequest{Name: "Acme"},
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(testOrg, nil)
				m.storage.EXPECT().AddMember(gomock.Any(), gomock.Any()).Return(nil, errDB)
			},
			expectedErr: func(err error) bool { return errors.Is(err, errDB) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			tt.setupMocks(m)

			org, err := svc.CreateOrganization(context.Background(), testOwnerID, tt.req)

			if tt.expectedErr != nil {
				if err == nil || !tt.expectedErr(err) {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if org.ID != testOrgID {
				t.Errorf("expected %s, got %s", testOrgID, org.ID)
			}
		})
	}
}

func TestService_UpdateOrganization(t *testing.T) {
	name := " Acme Corp "
	allowed := []string{"ACME.com"}

	tests := []struct {
		name          string
		req           *OrganizationUpdate
		expectedPaths []string
		expectedErr   bool
	}{
		{
			name:          "only provided fields are written",
			req:           &OrganizationUpdate{Name: &name, AllowedDomains: &allowed},
			expectedPaths: []string{"name", "allowed_domains"},
		},
		{
			name:        "empty name rejected",
			req:         &OrganizationUpdate{Name: new(string)},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)

			if !tt.expectedErr {
				m.storage.EXPECT().UpdateOrganization(gomock.Any(), gomock.Any(), tt.expectedPaths).DoAndReturn(
					func(_ context.Context, o *types.Organization, _ []string) error {
						if o.Name != "Acme Corp" || !reflect.DeepEqual(o.AllowedDomains, []string{"acme.com"}) {
							t.Errorf("unexpected organization %+v", o)
						}
						return nil
					},
				)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(testOrg, nil)
			}

			_, err := svc.UpdateOrganization(context.Background(), testOrgID, tt.req)
			if tt.expectedErr != (err != nil) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestService_GetSettings(t *testing.T) {
	tests := []struct {
		name        string
		stored      *types.OrganizationSettings
		err         error
		expected    *types.OrganizationSettings
		expectedErr bool
	}{
		{
			name:     "stored settings",
			stored:   &types.OrganizationSettings{OrganizationID: testOrgID, RequireDomainMatch: true, AllowedInvitationDomains: []string{"acme.com"}},
			expected: &types.OrganizationSettings{OrganizationID: testOrgID, RequireDomainMatch: true, AllowedInvitationDomains: []string{"acme.com"}},
		},
		{
			name:     "defaults when absent",
			err:      storage.ErrNotFound,
			expected: &types.OrganizationSettings{OrganizationID: testOrgID, AllowedInvitationDomains: []string{}},
		},
		{
			name:        "storage failure",
			err:         errDB,
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			m.storage.EXPECT().GetOrganizationSettings(gomock.Any(), testOrgID).Return(tt.stored, tt.err)

			settings, err := svc.GetSettings(context.Background(), testOrgID)
			if tt.expectedErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(settings, tt.expected) {
				t.Errorf("expected %+v, got %+v", tt.expected, settings)
			}
		})
	}
}

func TestService_UpdateSettings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newTestService(ctrl)
	m.storage.EXPECT().UpsertOrganizationSettings(gomock.Any(), &types.OrganizationSettings{
		OrganizationID:           testOrgID,
		RequireDomainMatch:       true,
		AllowedInvitationDomains: []string{"acme.com", "acme.io"},
	}).DoAndReturn(func(_ context.Context, s *types.OrganizationSettings) (*types.OrganizationSettings, error) {
		return s, nil
	})

	settings, err := svc.UpdateSettings(context.Background(), testOrgID, &SettingsRequest{
		RequireDomainMatch:       true,
		AllowedInvitationDomains: []string{" Acme.com ", "acme.io", "acme.com", ""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.RequireDomainMatch {
		t.Error("expected strict mode")
	}
}

func TestService_CreateProject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newTestService(ctrl)

	if _, err := svc.CreateProject(context.Background(), testOrgID, " "); !validation.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	m.storage.EXPECT().CreateProject(gomock.Any(), &types.Project{OrganizationID: testOrgID, Name: "Apollo"}).
		Return(&types.Project{ID: "proj-1", OrganizationID: testOrgID, Name: "Apollo"}, nil)

	project, err := svc.CreateProject(context.Background(), testOrgID, "Apollo ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.ID != "proj-1" {
		t.Errorf("unexpected project %+v", project)
	}
}

func TestService_ListMembers(t *testing.T) {
	tests := []struct {
		name          string
		page, size    int
		offset, limit uint64
	}{
		{name: "defaults", page: 0, size: 0, offset: 0, limit: DefaultPageSize},
		{name: "third page", page: 3, size: 10, offset: 20, limit: 10},
		{name: "size is capped", page: 1, size: 1000, offset: 0, limit: MaxPageSize},
		{name: "huge page saturates the offset", page: math.MaxInt, size: 50, offset: math.MaxInt64, limit: 50},
		{name: "negative page", page: -5, size: 10, offset: 0, limit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			m.storage.EXPECT().ListMembers(gomock.Any(), testOrgID, tt.offset, tt.limit).Return([]*types.Member{}, nil)

			if _, err := svc.ListMembers(context.Background(), testOrgID, tt.page, tt.size); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_AddMember(t *testing.T) {
	user := &types.User{ID: "user-2", Email: "eve@acme.com"}

	tests := []struct {
		name        string
		role        types.Role
		actor       *types.Membership
		setupMocks  func(*serviceMocks)
		expectedErr func(error) bool
	}{
		{
			name:  "admin adds a member",
			role:  types.RoleMember,
			actor: testAdmin,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(user, nil)
				m.storage.EXPECT().AddMember(gomock.Any(), &types.Membership{
					OrganizationID: testOrgID,
					UserID:         "user-2",
					Role:           types.RoleMember,
					InvitedBy:      "user-admin",
				}).Return(&types.Membership{ID: "m-1"}, nil)
			},
		},
		{
			name:        "admin cannot add an owner",
			role:        types.RoleOwner,
			actor:       testAdmin,
			setupMocks:  func(*serviceMocks) {},
			expectedErr: func(err error) bool { return errors.Is(err, authorization.ErrForbidden) },
		},
		{
			name:        "invalid role",
			role:        types.Role("root"),
			actor:       testOwner,
			setupMocks:  func(*serviceMocks) {},
			expectedErr: validation.IsValidationError,
		},
		{
			name:  "unknown user",
			role:  types.RoleViewer,
			actor: testOwner,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
			},
			expectedErr: validation.IsValidationError,
		},
		{
			name:  "already a member",
			role:  types.RoleViewer,
			actor: testOwner,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
				m.storage.EXPECT().AddMember(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey)
			},
			expectedErr: validation.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			tt.setupMocks(m)

			_, err := svc.AddMember(context.Background(), testOrgID, "eve@acme.com", tt.role, tt.actor)
			if tt.expectedErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !tt.expectedErr(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestService_UpdateMemberRole(t *testing.T) {
	tests := []struct {
		name        string
		current     types.Role
		role        types.Role
		actor       *types.Membership
		setupMocks  func(*serviceMocks)
		notified    bool
		expectedErr func(error) bool
	}{
		{
			name:    "admin promotes viewer to member",
			current: types.RoleViewer,
			role:    types.RoleMember,
			actor:   testAdmin,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().UpdateMemberRole(gomock.Any(), testOrgID, "user-2", types.RoleMember).Return(nil)
			},
			notified: true,
		},
		{
			name:        "admin cannot grant owner",
			current:     types.RoleAdmin,
			role:        types.RoleOwner,
			actor:       testAdmin,
			setupMocks:  func(*serviceMocks) {},
			expectedErr: func(err error) bool { return errors.Is(err, authorization.ErrForbidden) },
		},
		{
			name:        "admin cannot demote an owner",
			current:     types.RoleOwner,
			role:        types.RoleMember,
			actor:       testAdmin,
			setupMocks:  func(*serviceMocks) {},
			expectedErr: func(err error) bool { return errors.Is(err, authorization.ErrForbidden) },
		},
		{
			name:    "last owner cannot be demoted",
			current: types.RoleOwner,
			role:    types.RoleAdmin,
			actor:   testOwner,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().CountOwners(gomock.Any(), testOrgID).Return(int64(1), nil)
			},
			expectedErr: validation.IsValidationError,
		},
		{
			name:    "owner demoted when another remains",
			current: types.RoleOwner,
			role:    types.RoleAdmin,
			actor:   testOwner,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().CountOwners(gomock.Any(), testOrgID).Return(int64(2), nil)
				m.storage.EXPECT().UpdateMemberRole(gomock.Any(), testOrgID, "user-2", types.RoleAdmin).Return(nil)
			},
			notified: true,
		},
		{
			name:       "unchanged role is a no-op",
			current:    types.RoleMember,
			role:       types.RoleMember,
			actor:      testAdmin,
			setupMocks: func(*serviceMocks) {},
		},
		{
			name:    "notification failure is not fatal",
			current: types.RoleViewer,
			role:    types.RoleAdmin,
			actor:   testOwner,
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().UpdateMemberRole(gomock.Any(), testOrgID, "user-2", types.RoleAdmin).Return(nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errDB)
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			m.storage.EXPECT().GetOrganizationForUpdate(gomock.Any(), testOrgID).Return(testOrg, nil)
			m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, "user-2").
				Return(&types.Membership{OrganizationID: testOrgID, UserID: "user-2", Role: tt.current}, nil)
			tt.setupMocks(m)

			if tt.notified {
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) error {
						if n.Type != types.NotificationRoleChanged || n.UserID != "user-2" {
							t.Errorf("unexpected notification %+v", n)
						}
						if n.Metadata["old_role"] != string(tt.current) || n.Metadata["new_role"] != string(tt.role) {
							t.Errorf("unexpected metadata %v", n.Metadata)
						}
						return nil
					},
				)
			}

			membership, err := svc.UpdateMemberRole(context.Background(), testOrgID, "user-2", tt.role, tt.actor)
			if tt.expectedErr != nil {
				if err == nil || !tt.expectedErr(err) {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if membership.Role != tt.role {
				t.Errorf("expected role %s, got %s", tt.role, membership.Role)
			}
		})
	}
}

func TestService_RemoveMember(t *testing.T) {
	tests := []struct {
		name        string
		current     *types.Membership
		lookupErr   error
		setupMocks  func(*serviceMocks)
		expectedErr func(error) bool
	}{
		{
			name:    "member removed and notified",
			current: &types.Membership{UserID: "user-2", Role: types.RoleMember},
			setupMocks: func(m *serviceMocks) {
				m.storage.EXPECT().RemoveMember(gomock.Any(), testOrgID, "user-2").Return(nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) error {
						if n.Type != types.NotificationMemberRemoved || n.Priority != types.PriorityHigh {
							return errors.New("unexpected notification")
						}
						if n.Metadata["removed_by"] != "user-admin" {
							return errors.New("unexpected actor")
						}
						return nil
					},
				)
			},
		},
		{
			name:        "owner cannot be removed",
			current:     &types.Membership{UserID: "user-2", Role: types.RoleOwner},
			setupMocks:  func(*serviceMocks) {},
			expectedErr: validation.IsValidationError,
		},
		{
			name:        "not a member",
			lookupErr:   storage.ErrNotFound,
			setupMocks:  func(*serviceMocks) {},
			expectedErr: func(err error) bool { return errors.Is(err, storage.ErrNotFound) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			m.storage.EXPECT().GetOrganizationForUpdate(gomock.Any(), testOrgID).Return(testOrg, nil)
			m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, "user-2").Return(tt.current, tt.lookupErr)
			tt.setupMocks(m)

			err := svc.RemoveMember(context.Background(), testOrgID, "user-2", testAdmin)
			if tt.expectedErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !tt.expectedErr(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}
