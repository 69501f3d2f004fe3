// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

//go:generate mockgen -build_flags=--mod=mod -package invitations -destination ./mock_invitations.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitations -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitations -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package invitations -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	testOrgID     = "org-1"
	testInviterID = "user-inviter"
	testToken     = "tok-123"
	testTempPass  = "Temp!Pass123"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type serviceMocks struct {
	storage   *MockStorageInterface
	tx        *MockTxManagerInterface
	validator *MockDomainValidatorInterface
	notifier  *MockNotifierInterface
	mailer    *MockMailerInterface
	tracer    *MockTracingInterface
	monitor   *MockMonitorInterface
	logger    *MockLoggerInterface
	security  *MockSecurityLoggerInterface
}

var testHasher = credentials.NewHasher(bcrypt.MinCost)

func newTestService(ctrl *gomock.Controller) (*Service, *serviceMocks) {
	m := &serviceMocks{
		storage:   NewMockStorageInterface(ctrl),
		tx:        NewMockTxManagerInterface(ctrl),
		validator: NewMockDomainValidatorInterface(ctrl),
		notifier:  NewMockNotifierInterface(ctrl),
		mailer:    NewMockMailerInterface(ctrl),
		tracer:    NewMockTracingInterface(ctrl),
		monitor:   NewMockMonitorInterface(ctrl),
		logger:    NewMockLoggerInterface(ctrl),
		security:  NewMockSecurityLoggerInterface(ctrl),
	}

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()
	m.monitor.EXPECT().IncrementInvitationMetric(gomock.Any()).Return(nil).AnyTimes()
	m.logger.EXPECT().Security().Return(m.security).AnyTimes()
	m.logger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	m.tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	svc := NewService(
		m.storage, m.tx, m.validator, m.notifier, m.mailer, testHasher,
		Config{FrontendURL: "https://app.example.com/", Lifetime: 72 * time.Hour},
		m.tracer, m.monitor, m.logger,
	)
	svc.now = func() time.Time { return testNow }
	svc.generateToken = func() (string, error) { return testToken, nil }
	svc.generatePassword = func() (string, error) { return testTempPass, nil }

	return svc, m
}

func TestService_SendOrganizationInvitation(t *testing.T) {
	org := &types.Organization{ID: testOrgID, Name: "Acme"}
	inviter := &types.User{ID: testInviterID, Email: "boss@acme.com", FirstName: "Ada", LastName: "Boss"}
	invitee := &types.User{ID: "user-2", Email: "eve@acme.com"}
	dbErr := errors.New("db error")

	expectCreate := func(m *serviceMocks, projectID string) {
		m.storage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, i *types.Invitation) (*types.Invitation, error) {
				if i.Token != testToken || i.Email != "eve@acme.com" || i.InvitedRole != types.RoleMember {
					t.Errorf("unexpected invitation %+v", i)
				}
				if i.ProjectID != projectID {
					t.Errorf("expected project %q, got %q", projectID, i.ProjectID)
				}
				if !i.ExpiresAt.Equal(testNow.Add(72 * time.Hour)) {
					t.Errorf("unexpected expiry %s", i.ExpiresAt)
				}
				if i.TempPassword == testTempPass || !testHasher.Verify(testTempPass, i.TempPassword) {
					t.Error("temporary password must be stored hashed")
				}
				out := *i
				out.ID = "inv-1"
				return &out, nil
			},
		)
		m.security.EXPECT().InvitationIssued(testOrgID, testInviterID, "eve@acme.com", "member")
	}

	tests := []struct {
		name          string
		req           *SendRequest
		setupMocks    func(*serviceMocks)
		expectedErr   error
		errorContains string
		emailSent     bool
	}{
		{
			name: "invalid role",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: "superuser", InviterID: testInviterID},
			setupMocks: func(*serviceMocks) {
			},
			errorContains: "Invalid role 'superuser'",
		},
		{
			name: "domain rejected",
			req:  &SendRequest{Email: "eve@other.org", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@other.org", testOrgID).
					Return(validation.New("Email domain 'other.org' is not allowed. Allowed domains: acme.com"))
			},
			errorContains: "Email domain 'other.org' is not allowed",
		},
		{
			name: "organization missing",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(nil, storage.ErrNotFound)
			},
			errorContains: "Organization not found",
		},
		{
			name: "invitee already a member",
			req:  &SendRequest{Email: " Eve@Acme.com ", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(invitee, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, invitee.ID).Return(&types.Membership{}, nil)
			},
			errorContains: "User is already a member of this organization",
		},
		{
			name: "project from another organization",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID, ProjectID: "proj-9"},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().GetProjectByID(gomock.Any(), "proj-9").Return(&types.Project{ID: "proj-9", OrganizationID: "org-2"}, nil)
			},
			errorContains: "Project not found",
		},
		{
			name: "lookup failure is not a validation error",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
		{
			name: "new user receives email",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID, Message: "welcome aboard"},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(nil, storage.ErrNotFound)
				expectCreate(m, "")
				m.storage.EXPECT().GetUserByID(gomock.Any(), testInviterID).Return(inviter, nil)
				m.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *mail.Email) (bool, error) {
						if e.To != "eve@acme.com" || e.Subject != "You're invited to join Acme" {
							t.Errorf("unexpected email %q to %q", e.Subject, e.To)
						}
						if !strings.Contains(e.TextBody, "https://app.example.com/accept-invitation?token="+testToken) {
							t.Errorf("email is missing the acceptance link:\n%s", e.TextBody)
						}
						if !strings.Contains(e.TextBody, testTempPass) || !strings.Contains(e.TextBody, "Ada Boss") {
							t.Errorf("email is missing credentials or inviter:\n%s", e.TextBody)
						}
						return true, nil
					},
				)
			},
			emailSent: true,
		},
		{
			name: "existing non-member gets a notification",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID, ProjectID: "proj-1"},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(invitee, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, invitee.ID).Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().GetProjectByID(gomock.Any(), "proj-1").Return(&types.Project{ID: "proj-1", OrganizationID: testOrgID, Name: "Apollo"}, nil)
				expectCreate(m, "proj-1")
				m.storage.EXPECT().GetUserByID(gomock.Any(), testInviterID).Return(inviter, nil)
				m.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(true, nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) error {
						if n.UserID != invitee.ID || n.Type != types.NotificationTeamInvite {
							t.Errorf("unexpected notification %+v", n)
						}
						if n.Title != "Project Invitation from Acme" || n.ActionURL != "/accept-invitation?token="+testToken {
							t.Errorf("unexpected notification content %+v", n)
						}
						if n.Metadata["project_name"] != "Apollo" || n.Metadata["invitation_id"] != "inv-1" {
							t.Errorf("unexpected metadata %v", n.Metadata)
						}
						return nil
					},
				)
			},
			emailSent: true,
		},
		{
			name: "mail and notification failures do not undo the invitation",
			req:  &SendRequest{Email: "eve@acme.com", OrganizationID: testOrgID, Role: types.RoleMember, InviterID: testInviterID},
			setupMocks: func(m *serviceMocks) {
				m.validator.EXPECT().Validate(gomock.Any(), "eve@acme.com", testOrgID).Return(nil)
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(invitee, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, invitee.ID).Return(nil, storage.ErrNotFound)
				expectCreate(m, "")
				m.storage.EXPECT().GetUserByID(gomock.Any(), testInviterID).Return(nil, storage.ErrNotFound)
				m.logger.EXPECT().Warnf(gomock.Any(), gomock.Any()).Times(1)
				m.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *mail.Email) (bool, error) {
						if !strings.Contains(e.TextBody, "A team member") {
							t.Errorf("expected fallback inviter name:\n%s", e.TextBody)
						}
						return false, errors.New("smtp down")
					},
				)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(2)
			},
			emailSent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)
			tt.setupMocks(m)

			result, err := svc.SendOrganizationInvitation(context.Background(), tt.req)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				if validation.IsValidationError(err) {
					t.Errorf("did not expect a validation error: %v", err)
				}
				return
			}

			if tt.errorContains != "" {
				if !validation.IsValidationError(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error containing %q, got %q", tt.errorContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.InvitationID != "inv-1" || result.Token != testToken || result.TemporaryPassword != testTempPass {
				t.Errorf("unexpected result %+v", result)
			}
			if result.EmailSent != tt.emailSent {
				t.Errorf("expected email_sent %v, got %v", tt.emailSent, result.EmailSent)
			}
			if !result.ExpiresAt.Equal(testNow.Add(72 * time.Hour)) {
				t.Errorf("unexpected expiry %s", result.ExpiresAt)
			}
		})
	}
}

func pendingInvitation(t *testing.T) *types.Invitation {
	t.Helper()

	hash, err := testHasher.Hash(testTempPass)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	return &types.Invitation{
		ID:             "inv-1",
		Token:          testToken,
		Email:          "eve@acme.com",
		OrganizationID: testOrgID,
		InvitedRole:    types.RoleAdmin,
		TempPassword:   hash,
		InvitedBy:      testInviterID,
		ExpiresAt:      testNow.Add(time.Hour),
	}
}

func TestService_AcceptInvitation(t *testing.T) {
	org := &types.Organization{ID: testOrgID, Name: "Acme"}
	valid := &AcceptRequest{Token: testToken, TemporaryPassword: testTempPass, NewPassword: "correct horse battery", FirstName: "Eve", LastName: "Adams"}

	tests := []struct {
		name          string
		req           *AcceptRequest
		invitation    func(*types.Invitation)
		setupMocks    func(*serviceMocks, *types.Invitation)
		errorContains string
		expectedUser  string
	}{
		{
			name:          "missing new password",
			req:           &AcceptRequest{Token: testToken, TemporaryPassword: testTempPass},
			setupMocks:    func(*serviceMocks, *types.Invitation) {},
			errorContains: "New password is required",
		},
		{
			name: "unknown token",
			req:  valid,
			setupMocks: func(m *serviceMocks, _ *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(nil, storage.ErrNotFound)
			},
			errorContains: "Invalid or expired invitation token",
		},
		{
			name:       "already used",
			req:        valid,
			invitation: func(i *types.Invitation) { i.IsUsed = true },
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
			},
			errorContains: "Invitation has already been used",
		},
		{
			name:       "expiry equal to now is expired",
			req:        valid,
			invitation: func(i *types.Invitation) { i.ExpiresAt = testNow },
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
			},
			errorContains: "Invitation has expired",
		},
		{
			name: "wrong temporary password",
			req:  &AcceptRequest{Token: testToken, TemporaryPassword: "guess", NewPassword: "correct horse battery"},
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
			},
			errorContains: "Invalid temporary password",
		},
		{
			name: "lost race on the used flag",
			req:  valid,
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(&types.User{ID: "user-new", Email: "eve@acme.com"}, nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, "user-new").Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().AddMember(gomock.Any(), gomock.Any()).Return(&types.Membership{}, nil)
				m.storage.EXPECT().MarkInvitationUsed(gomock.Any(), "inv-1", testNow).Return(storage.ErrAlreadyUsed)
			},
			errorContains: "Invitation has already been used",
		},
		{
			name: "new user joins with the invited role",
			req:  valid,
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, u *types.User) (*types.User, error) {
						if !u.EmailVerified || !u.Active || u.FirstName != "Eve" {
							t.Errorf("unexpected user %+v", u)
						}
						if !testHasher.Verify("correct horse battery", u.PasswordHash) {
							t.Error("new password must be stored hashed")
						}
						out := *u
						out.ID = "user-new"
						return &out, nil
					},
				)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, "user-new").Return(nil, storage.ErrNotFound)
				m.storage.EXPECT().AddMember(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, ms *types.Membership) (*types.Membership, error) {
						if ms.Role != types.RoleAdmin || ms.InvitedBy != testInviterID || ms.UserID != "user-new" {
							t.Errorf("unexpected membership %+v", ms)
						}
						return ms, nil
					},
				)
				m.storage.EXPECT().MarkInvitationUsed(gomock.Any(), "inv-1", testNow).Return(nil)
				m.security.EXPECT().InvitationAccepted(testOrgID, "user-new", "admin")
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)

				welcome := m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) error {
						if n.UserID != "user-new" || n.Title != "Welcome to Acme!" || n.Type != types.NotificationTeamInviteAccepted {
							t.Errorf("unexpected welcome notification %+v", n)
						}
						return nil
					},
				)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) error {
						if n.UserID != testInviterID || n.Title != "Invitation Accepted" || n.ActionURL != "/team-members" {
							t.Errorf("unexpected inviter notification %+v", n)
						}
						return errors.New("insert failed")
					},
				).After(welcome)
				m.logger.EXPECT().Errorf(gomock.Any(), gomock.Any()).Times(1)
			},
			expectedUser: "user-new",
		},
		{
			name: "existing member only resets the password",
			req:  valid,
			setupMocks: func(m *serviceMocks, i *types.Invitation) {
				m.storage.EXPECT().GetInvitationByTokenForUpdate(gomock.Any(), testToken).Return(i, nil)
				m.storage.EXPECT().GetUserByEmail(gomock.Any(), "eve@acme.com").Return(&types.User{ID: "user-2", Email: "eve@acme.com"}, nil)
				m.storage.EXPECT().UpdateUserPassword(gomock.Any(), "user-2", gomock.Any()).Return(nil)
				m.storage.EXPECT().GetMembership(gomock.Any(), testOrgID, "user-2").Return(&types.Membership{Role: types.RoleViewer}, nil)
				m.storage.EXPECT().MarkInvitationUsed(gomock.Any(), "inv-1", testNow).Return(nil)
				m.security.EXPECT().InvitationAccepted(testOrgID, "user-2", "admin")
				m.storage.EXPECT().GetOrganizationByID(gomock.Any(), testOrgID).Return(org, nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
			expectedUser: "user-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)

			invitation := pendingInvitation(t)
			if tt.invitation != nil {
				tt.invitation(invitation)
			}
			tt.setupMocks(m, invitation)

			result, err := svc.AcceptInvitation(context.Background(), tt.req)

			if tt.errorContains != "" {
				if !validation.IsValidationError(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error containing %q, got %q", tt.errorContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.UserID != tt.expectedUser || result.OrganizationID != testOrgID || result.Role != types.RoleAdmin {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
}

func TestService_CancelInvitation(t *testing.T) {
	tests := []struct {
		name           string
		organizationID string
		deleted        bool
		storageErr     error
		expected       bool
		expectErr      bool
	}{
		{name: "inviter cancels pending invitation", organizationID: testOrgID, deleted: true, expected: true},
		{name: "someone else's or accepted invitation", organizationID: testOrgID, deleted: false, expected: false},
		{name: "invitation of another organization", organizationID: "org-2", deleted: false, expected: false},
		{name: "storage failure", organizationID: testOrgID, storageErr: errors.New("db error"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newTestService(ctrl)

			m.storage.EXPECT().DeletePendingInvitation(gomock.Any(), tt.organizationID, "inv-1", testInviterID).Return(tt.deleted, tt.storageErr)
			if tt.deleted {
				m.security.EXPECT().InvitationCancelled("inv-1", testInviterID)
			}

			cancelled, err := svc.CancelInvitation(context.Background(), tt.organizationID, "inv-1", testInviterID)

			if tt.expectErr != (err != nil) {
				t.Fatalf("expected error %v, got %v", tt.expectErr, err)
			}
			if cancelled != tt.expected {
				t.Errorf("expected cancelled %v, got %v", tt.expected, cancelled)
			}
		})
	}
}

func TestService_GetPendingInvitations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newTestService(ctrl)

	pending := []*types.Invitation{{ID: "inv-2"}, {ID: "inv-1"}}
	m.storage.EXPECT().ListPendingInvitations(gomock.Any(), testOrgID, testNow).Return(pending, nil)

	result, err := svc.GetPendingInvitations(context.Background(), testOrgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 || result[0].ID != "inv-2" {
		t.Errorf("unexpected invitations %+v", result)
	}
}

func TestService_PurgeInvitations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newTestService(ctrl)

	m.storage.EXPECT().PurgeInvitations(gomock.Any(), testNow.Add(-48*time.Hour)).Return(int64(3), nil)

	purged, err := svc.PurgeInvitations(context.Background(), 48*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purged != 3 {
		t.Errorf("expected 3 purged, got %d", purged)
	}
}

func TestNewService_DefaultLifetime(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewService(nil, nil, nil, nil, nil, testHasher, Config{}, NewMockTracingInterface(ctrl), NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))
	if svc.lifetime != DefaultLifetime {
		t.Errorf("expected default lifetime %s, got %s", DefaultLifetime, svc.lifetime)
	}
}

func TestHumanizeDuration(t *testing.T) {
	tests := map[time.Duration]string{
		7 * 24 * time.Hour: "7 days",
		24 * time.Hour:     "1 day",
		5 * time.Hour:      "5 hours",
		time.Hour:          "1 hour",
		30 * time.Minute:   "30m0s",
	}

	for d, expected := range tests {
		if got := humanizeDuration(d); got != expected {
			t.Errorf("humanizeDuration(%s) = %q, expected %q", d, got, expected)
		}
	}
}
