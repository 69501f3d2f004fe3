// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"context"
	"net/http"
	"time"

	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	SendOrganizationInvitation(ctx context.Context, req *SendRequest) (*SendResult, error)
	AcceptInvitation(ctx context.Context, req *AcceptRequest) (*AcceptResult, error)
	GetPendingInvitations(ctx context.Context, organizationID string) ([]*types.Invitation, error)
	CancelInvitation(ctx context.Context, organizationID, invitationID, userID string) (bool, error)
	PurgeInvitations(ctx context.Context, retention time.Duration) (int64, error)
}

type StorageInterface interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
	AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error)
	CreateInvitation(ctx context.Context, i *types.Invitation) (*types.Invitation, error)
	GetInvitationByTokenForUpdate(ctx context.Context, token string) (*types.Invitation, error)
	MarkInvitationUsed(ctx context.Context, id string, usedAt time.Time) error
	ListPendingInvitations(ctx context.Context, organizationID string, now time.Time) ([]*types.Invitation, error)
	DeletePendingInvitation(ctx context.Context, organizationID, id, invitedBy string) (bool, error)
	PurgeInvitations(ctx context.Context, cutoff time.Time) (int64, error)
}

type TxManagerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type DomainValidatorInterface interface {
	Validate(ctx context.Context, email, organizationID string) error
}

type NotifierInterface interface {
	Notify(ctx context.Context, n *types.Notification) error
}

type MailerInterface interface {
	Send(ctx context.Context, email *mail.Email) (bool, error)
}

type HasherInterface interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type AuthenticationMiddlewareInterface interface {
	Authenticate() func(http.Handler) http.Handler
}

type AuthorizationMiddlewareInterface interface {
	RequireRole(minimum types.Role) func(http.Handler) http.Handler
}
