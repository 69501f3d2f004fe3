// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organizations

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	CreateOrganization(ctx context.Context, creatorID string, req *OrganizationRequest) (*types.Organization, error)
	GetOrganization(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizations(ctx context.Context, userID string) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, id string, req *OrganizationUpdate) (*types.Organization, error)
	DeleteOrganization(ctx context.Context, id string) error

	GetSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error)
	UpdateSettings(ctx context.Context, organizationID string, req *SettingsRequest) (*types.OrganizationSettings, error)

	CreateProject(ctx context.Context, organizationID, name string) (*types.Project, error)

	ListMembers(ctx context.Context, organizationID string, page, size int) ([]*types.Member, error)
	AddMember(ctx context.Context, organizationID, email string, role types.Role, actor *types.Membership) (*types.Membership, error)
	UpdateMemberRole(ctx context.Context, organizationID, userID string, role types.Role, actor *types.Membership) (*types.Membership, error)
	RemoveMember(ctx context.Context, organizationID, userID string, actor *types.Membership) error
}

type StorageInterface interface {
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	GetOrganizationForUpdate(ctx context.Context, id string) (*types.Organization, error)
	ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, o *types.Organization, paths []string) error
	DeleteOrganization(ctx context.Context, id string) error
	GetOrganizationSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error)
	UpsertOrganizationSettings(ctx context.Context, settings *types.OrganizationSettings) (*types.OrganizationSettings, error)

	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)

	AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error)
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	ListMembers(ctx context.Context, organizationID string, offset, limit uint64) ([]*types.Member, error)
	UpdateMemberRole(ctx context.Context, organizationID, userID string, role types.Role) error
	RemoveMember(ctx context.Context, organizationID, userID string) error
	CountOwners(ctx context.Context, organizationID string) (int64, error)
}

type TxManagerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type NotifierInterface interface {
	Notify(ctx context.Context, n *types.Notification) error
}

type AuthenticationMiddlewareInterface interface {
	Authenticate() func(http.Handler) http.Handler
}

type AuthorizationMiddlewareInterface interface {
	RequireRole(minimum types.Role) func(http.Handler) http.Handler
}
