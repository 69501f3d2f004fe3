// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package domains

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type ValidatorInterface interface {
	Validate(ctx context.Context, email, organizationID string) error
}

type StorageInterface interface {
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	GetOrganizationSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error)
}
