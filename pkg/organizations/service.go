// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/domains"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	tx       TxManagerInterface
	notifier NotifierInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CreateOrganization inserts the organization and makes creatorID its owner
// in the same transaction.
func (s *Service) CreateOrganization(ctx context.Context, creatorID string, req *OrganizationRequest) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.CreateOrganization")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation.New("Organization name is required")
	}

	var created *types.Organization

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error

		created, err = s.storage.CreateOrganization(ctx, &types.Organization{
			Name:           name,
			Description:    req.Description,
			Domain:         domains.NormalizeDomain(req.Domain),
			AllowedDomains: domains.NormalizeDomains(req.AllowedDomains),
			CreatedBy:      creatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		_, err = s.storage.AddMember(ctx, &types.Membership{
			OrganizationID: created.ID,
			UserID:         creatorID,
			Role:           types.RoleOwner,
		})
		if err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.GetOrganization")
	defer span.End()

	return s.storage.GetOrganizationByID(ctx, id)
}

// ListOrganizations returns the organizations userID belongs to, by name.
func (s *Service) ListOrganizations(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.ListOrganizations")
	defer span.End()

	orgs, err := s.storage.ListOrganizationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return orgs, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, id string, req *OrganizationUpdate) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.UpdateOrganization")
	defer span.End()

	org := &types.Organization{ID: id}
	paths := make([]string, 0, 4)

	if req.Name != nil {
		org.Name = strings.TrimSpace(*req.Name)
		if org.Name == "" {
			return nil, validation.New("Organization name cannot be empty")
		}
		paths = append(paths, "name")
	}
	if req.Description != nil {
		org.Description = *req.Description
		paths = append(paths, "description")
	}
	if req.Domain != nil {
		org.Domain = domains.NormalizeDomain(*req.Domain)
		paths = append(paths, "domain")
	}
	if req.AllowedDomains != nil {
		org.AllowedDomains = domains.NormalizeDomains(*req.AllowedDomains)
		paths = append(paths, "allowed_domains")
	}

	if err := s.storage.UpdateOrganization(ctx, org, paths); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	updated, err := s.storage.GetOrganizationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get updated organization: %w", err)
	}

	return updated, nil
}

// DeleteOrganization removes the organization; memberships, settings,
// projects and invitations cascade.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.DeleteOrganization")
	defer span.End()

	if err := s.storage.DeleteOrganization(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// GetSettings returns the stored settings or the defaults when none exist.
func (s *Service) GetSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.GetSettings")
	defer span.End()

	settings, err := s.storage.GetOrganizationSettings(ctx, organizationID)
	if errors.Is(err, storage.ErrNotFound) {
		return &types.OrganizationSettings{
			OrganizationID:           organizationID,
			AllowedInvitationDomains: []string{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization settings: %w", err)
	}

	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, organizationID string, req *SettingsRequest) (*types.OrganizationSettings, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.UpdateSettings")
	defer span.End()

	settings, err := s.storage.UpsertOrganizationSettings(ctx, &types.OrganizationSettings{
		OrganizationID:           organizationID,
		RequireDomainMatch:       req.RequireDomainMatch,
		AllowedInvitationDomains: domains.NormalizeDomains(req.AllowedInvitationDomains),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update organization settings: %w", err)
	}

	return settings, nil
}

func (s *Service) CreateProject(ctx context.Context, organizationID, name string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.CreateProject")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation.New("Project name is required")
	}

	project, err := s.storage.CreateProject(ctx, &types.Project{OrganizationID: organizationID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListMembers pages through members in join order. page is 1-based.
func (s *Service) ListMembers(ctx context.Context, organizationID string, page, size int) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.ListMembers")
	defer span.End()

	offset, limit := storage.Window(page, size, DefaultPageSize, MaxPageSize)

	members, err := s.storage.ListMembers(ctx, organizationID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// AddMember adds an existing user directly, without an invitation.
func (s *Service) AddMember(ctx context.Context, organizationID, email string, role types.Role, actor *types.Membership) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.AddMember")
	defer span.End()

	if !role.Valid() {
		return nil, validation.Newf("Invalid role '%s'", role)
	}

	if role == types.RoleOwner && !isOwner(actor) {
		return nil, authorization.ErrForbidden
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, validation.New("User not found. Send an invitation instead")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	m := &types.Membership{OrganizationID: organizationID, UserID: user.ID, Role: role}
	if actor != nil {
		m.InvitedBy = actor.UserID
	}

	membership, err := s.storage.AddMember(ctx, m)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, validation.New("User is already a member of this organization")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return membership, nil
}

// UpdateMemberRole changes a member's role. Only owners may grant or revoke
// owner, and the last owner cannot be demoted. The organization row is
// locked so concurrent demotions are serialised.
func (s *Service) UpdateMemberRole(ctx context.Context, organizationID, userID string, role types.Role, actor *types.Membership) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.UpdateMemberRole")
	defer span.End()

	if !role.Valid() {
		return nil, validation.Newf("Invalid role '%s'", role)
	}

	var (
		org      *types.Organization
		previous types.Role
		updated  *types.Membership
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error

		if org, err = s.storage.GetOrganizationForUpdate(ctx, organizationID); err != nil {
			return err
		}

		current, err := s.storage.GetMembership(ctx, organizationID, userID)
		if err != nil {
			return err
		}
		previous = current.Role

		if (role == types.RoleOwner || current.Role == types.RoleOwner) && !isOwner(actor) {
			return authorization.ErrForbidden
		}

		if current.Role == types.RoleOwner && role != types.RoleOwner {
			owners, err := s.storage.CountOwners(ctx, organizationID)
			if err != nil {
				return fmt.Errorf("failed to count owners: %w", err)
			}
			if owners <= 1 {
				return validation.New("Cannot demote the last owner of the organization")
			}
		}

		if current.Role == role {
			updated = current
			return nil
		}

		if err := s.storage.UpdateMemberRole(ctx, organizationID, userID, role); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}

		current.Role = role
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != role {
		s.notify(ctx, &types.Notification{
			UserID:         userID,
			OrganizationID: organizationID,
			Title:          "Your role has changed",
			Message:        fmt.Sprintf("Your role in %s changed from %s to %s", org.Name, previous, role),
			Type:           types.NotificationRoleChanged,
			Priority:       types.PriorityNormal,
			ActionURL:      "/team-members",
			Metadata: map[string]interface{}{
				"organization_name": org.Name,
				"old_role":          string(previous),
				"new_role":          string(role),
			},
		})
	}

	return updated, nil
}

// RemoveMember deletes a non-owner membership.
func (s *Service) RemoveMember(ctx context.Context, organizationID, userID string, actor *types.Membership) error {
	ctx, span := s.tracer.Start(ctx, "organizations.Service.RemoveMember")
	defer span.End()

	var org *types.Organization

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error

		if org, err = s.storage.GetOrganizationForUpdate(ctx, organizationID); err != nil {
			return err
		}

		current, err := s.storage.GetMembership(ctx, organizationID, userID)
		if err != nil {
			return err
		}

		if current.Role == types.RoleOwner {
			return validation.New("Owners cannot be removed from the organization")
		}

		if err := s.storage.RemoveMember(ctx, organizationID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}

	s.notify(ctx, &types.Notification{
		UserID:         userID,
		OrganizationID: organizationID,
		Title:          "Removed from organization",
		Message:        fmt.Sprintf("You have been removed from %s", org.Name),
		Type:           types.NotificationMemberRemoved,
		Priority:       types.PriorityHigh,
		Metadata: map[string]interface{}{
			"organization_name": org.Name,
			"removed_by":        actorID,
		},
	})

	return nil
}

func (s *Service) notify(ctx context.Context, n *types.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Errorf("failed to create %s notification for user %s: %v", n.Type, n.UserID, err)
	}
}

func isOwner(m *types.Membership) bool {
	return m != nil && m.Role == types.RoleOwner
}

func NewService(
	storage StorageInterface,
	tx TxManagerInterface,
	notifier NotifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		tx:       tx,
		notifier: notifier,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
