// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var ErrForbidden = errors.New("insufficient permissions")

type Authorizer struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) CheckOrganizationAccess(ctx context.Context, organizationID, userID string, minimum types.Role) (*types.Membership, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckOrganizationAccess")
	defer span.End()

	if organizationID == "" || userID == "" {
		return nil, ErrForbidden
	}

	membership, err := a.storage.GetMembership(ctx, organizationID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		a.logger.Errorf("failed to load membership of %s in %s: %v", userID, organizationID, err)
		return nil, err
	}

	if !membership.Role.AtLeast(minimum) {
		return nil, ErrForbidden
	}

	return membership, nil
}

func NewAuthorizer(s StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.storage = s
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
