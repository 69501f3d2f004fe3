// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type AuthorizerInterface interface {
	// CheckOrganizationAccess returns the membership of userID in
	// organizationID when its role is at least minimum, ErrForbidden otherwise.
	CheckOrganizationAccess(ctx context.Context, organizationID, userID string, minimum types.Role) (*types.Membership, error)
}

type StorageInterface interface {
	GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error)
}
