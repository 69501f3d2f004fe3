// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organizations

type OrganizationRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=255"`
	Description    string   `json:"description" validate:"max=2000"`
	Domain         string   `json:"domain" validate:"omitempty,fqdn"`
	AllowedDomains []string `json:"allowed_domains" validate:"max=100"`
}

// OrganizationUpdate is a partial update: nil fields are left untouched.
type OrganizationUpdate struct {
	Name           *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Description    *string   `json:"description" validate:"omitempty,max=2000"`
	Domain         *string   `json:"domain" validate:"omitempty"`
	AllowedDomains *[]string `json:"allowed_domains" validate:"omitempty"`
}

type SettingsRequest struct {
	RequireDomainMatch       bool     `json:"require_domain_match"`
	AllowedInvitationDomains []string `json:"allowed_invitation_domains" validate:"max=100"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=viewer member admin owner"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=viewer member admin owner"`
}

type projectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
