// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	Register(ctx context.Context, req *RegisterRequest) (*Registration, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
}

// StorageInterface is the subset of internal/storage used by users.
type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error)
}

type TxManagerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type HasherInterface interface {
	Hash(string) (string, error)
	Verify(string, string) bool
}

type AuthenticationMiddlewareInterface interface {
	Authenticate() func(http.Handler) http.Handler
}
