// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import "github.com/canonical/workspace-service/internal/types"

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// Registration is the account created by Register together with its
// personal organization.
type Registration struct {
	User         *types.User         `json:"user"`
	Organization *types.Organization `json:"organization"`
}
