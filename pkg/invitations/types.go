// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"time"

	"github.com/canonical/workspace-service/internal/types"
)

type SendRequest struct {
	Email          string
	OrganizationID string
	Role           types.Role
	InviterID      string
	ProjectID      string
	Message        string
}

type SendResult struct {
	InvitationID      string    `json:"invitation_id"`
	Token             string    `json:"token"`
	TemporaryPassword string    `json:"temporary_password"`
	EmailSent         bool      `json:"email_sent"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type AcceptRequest struct {
	Token             string
	TemporaryPassword string
	NewPassword       string
	FirstName         string
	LastName          string
}

type AcceptResult struct {
	UserID         string     `json:"user_id"`
	OrganizationID string     `json:"organization_id"`
	Role           types.Role `json:"role"`
	ProjectID      string     `json:"project_id,omitempty"`
}

// Config holds the workflow settings that come from the environment.
type Config struct {
	FrontendURL string
	Lifetime    time.Duration
}
