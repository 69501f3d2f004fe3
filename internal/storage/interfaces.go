// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/types"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	GetOrganizationForUpdate(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, o *types.Organization, paths []string) error
	DeleteOrganization(ctx context.Context, id string) error
	GetOrganizationSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error)
	UpsertOrganizationSettings(ctx context.Context, settings *types.OrganizationSettings) (*types.OrganizationSettings, error)

	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)

	AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error)
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context, organizationID string, offset, limit uint64) ([]*types.Member, error)
	UpdateMemberRole(ctx context.Context, organizationID, userID string, role types.Role) error
	RemoveMember(ctx context.Context, organizationID, userID string) error
	CountOwners(ctx context.Context, organizationID string) (int64, error)

	CreateInvitation(ctx context.Context, i *types.Invitation) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	GetInvitationByTokenForUpdate(ctx context.Context, token string) (*types.Invitation, error)
	MarkInvitationUsed(ctx context.Context, id string, usedAt time.Time) error
	ListPendingInvitations(ctx context.Context, organizationID string, now time.Time) ([]*types.Invitation, error)
	DeletePendingInvitation(ctx context.Context, organizationID, id, invitedBy string) (bool, error)
	PurgeInvitations(ctx context.Context, cutoff time.Time) (int64, error)

	CreateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error)
	ListNotifications(ctx context.Context, userID string, filter NotificationFilter) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	GetNotificationStats(ctx context.Context, userID string) (*types.NotificationStats, error)
}
