// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type membershipKey struct{}

// WithMembership stores the caller's membership of the routed organization.
func WithMembership(ctx context.Context, m *types.Membership) context.Context {
	return context.WithValue(ctx, membershipKey{}, m)
}

// MembershipFromContext returns the membership stored by Middleware.RequireRole.
func MembershipFromContext(ctx context.Context) (*types.Membership, bool) {
	m, ok := ctx.Value(membershipKey{}).(*types.Membership)
	return m, ok && m != nil
}
