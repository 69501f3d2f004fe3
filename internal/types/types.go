// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName falls back to the email address when no name is set.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

type Organization struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Domain         string    `db:"domain" json:"domain,omitempty"`
	AllowedDomains []string  `db:"allowed_domains" json:"allowed_domains"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type OrganizationSettings struct {
	OrganizationID           string    `db:"organization_id" json:"organization_id"`
	RequireDomainMatch       bool      `db:"require_domain_match" json:"require_domain_match"`
	AllowedInvitationDomains []string  `db:"allowed_invitation_domains" json:"allowed_invitation_domains"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

type Project struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Membership struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Role           Role      `db:"role" json:"role"`
	InvitedBy      string    `db:"invited_by" json:"invited_by,omitempty"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
}

// Member is a membership joined with the user it belongs to.
type Member struct {
	Membership
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Invitation struct {
	ID             string     `db:"id" json:"id"`
	Token          string     `db:"token" json:"-"`
	Email          string     `db:"email" json:"email"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	ProjectID      string     `db:"project_id" json:"project_id,omitempty"`
	InvitedRole    Role       `db:"invited_role" json:"invited_role"`
	TempPassword   string     `db:"temp_password_hash" json:"-"`
	InvitedBy      string     `db:"invited_by" json:"invited_by"`
	Message        string     `db:"message" json:"message,omitempty"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	IsUsed         bool       `db:"is_used" json:"is_used"`
	UsedAt         *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the invitation is no longer valid at now. An
// invitation whose expiry equals now is expired.
func (i *Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

type Notification struct {
	ID             string                 `db:"id" json:"id"`
	UserID         string                 `db:"user_id" json:"user_id"`
	OrganizationID string                 `db:"organization_id" json:"organization_id,omitempty"`
	Title          string                 `db:"title" json:"title"`
	Message        string                 `db:"message" json:"message"`
	Type           NotificationType       `db:"type" json:"type"`
	Priority       Priority               `db:"priority" json:"priority"`
	ActionURL      string                 `db:"action_url" json:"action_url,omitempty"`
	Metadata       map[string]interface{} `db:"metadata" json:"metadata,omitempty"`
	Read           bool                   `db:"read" json:"read"`
	ReadAt         *time.Time             `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}

type NotificationStats struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
	Read   int64 `json:"read"`
}

type NotificationType string

const (
	NotificationTeamInvite         NotificationType = "team_invite"
	NotificationTeamInviteAccepted NotificationType = "team_invite_accepted"
	NotificationRoleChanged        NotificationType = "role_changed"
	NotificationMemberRemoved      NotificationType = "member_removed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority returns PriorityNormal for an empty string.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityNormal, nil
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q", s)
	}
}
