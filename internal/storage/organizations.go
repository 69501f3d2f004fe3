// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

var organizationColumns = []string{"o.id", "o.name", "o.description", "o.domain", "o.allowed_domains", "o.created_by", "o.created_at", "o.updated_at"}

func scanOrganization(row rowScanner) (*types.Organization, error) {
	var (
		o      types.Organization
		domain sql.NullString
	)

	err := row.Scan(&o.ID, &o.Name, &o.Description, &domain, textArray(&o.AllowedDomains), &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.Domain = domain.String
	return &o, nil
}

func (s *Storage) CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateOrganization")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	created, err := scanOrganization(
		s.db.Statement(ctx).
			Insert("organizations AS o").
			Columns("id", "name", "description", "domain", "allowed_domains", "created_by").
			Values(id, o.Name, o.Description, nullable(o.Domain), stringArray(o.AllowedDomains), o.CreatedBy).
			Suffix("RETURNING " + strings.Join(organizationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert organization")
	}

	return created, nil
}

func (s *Storage) GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationByID")
	defer span.End()

	return s.getOrganization(ctx, id, "")
}

// GetOrganizationForUpdate locks the organization row until the surrounding
// transaction ends. Membership changes that guard the last owner serialize on it.
func (s *Storage) GetOrganizationForUpdate(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationForUpdate")
	defer span.End()

	return s.getOrganization(ctx, id, "FOR UPDATE")
}

func (s *Storage) getOrganization(ctx context.Context, id, suffix string) (*types.Organization, error) {
	query := s.db.Statement(ctx).
		Select(organizationColumns...).
		From("organizations o").
		Where(sq.Eq{"o.id": id})

	if suffix != "" {
		query = query.Suffix(suffix)
	}

	o, err := scanOrganization(query.QueryRowContext(ctx))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return o, nil
}

func (s *Storage) ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizationsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(organizationColumns...).
		From("organizations o").
		Join("organization_members m ON o.id = m.organization_id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("o.name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	organizations := make([]*types.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return organizations, nil
}

// UpdateOrganization follows PATCH semantics: only the fields named in paths
// are written.
func (s *Storage) UpdateOrganization(ctx context.Context, o *types.Organization, paths []string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateOrganization")
	defer span.End()

	updateMap := make(map[string]interface{})
	for _, p := range paths {
		switch p {
		case "name":
			updateMap["name"] = o.Name
		case "description":
			updateMap["description"] = o.Description
		case "domain":
			updateMap["domain"] = nullable(o.Domain)
		case "allowed_domains":
			updateMap["allowed_domains"] = stringArray(o.AllowedDomains)
		}
	}

	if len(updateMap) == 0 {
		return nil
	}

	updateMap["updated_at"] = sq.Expr("now()")

	res, err := s.db.Statement(ctx).
		Update("organizations").
		SetMap(updateMap).
		Where(sq.Eq{"id": o.ID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) DeleteOrganization(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteOrganization")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("organizations").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetOrganizationSettings returns ErrNotFound when the organization has no
// settings row.
func (s *Storage) GetOrganizationSettings(ctx context.Context, organizationID string) (*types.OrganizationSettings, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationSettings")
	defer span.End()

	var settings types.OrganizationSettings
	err := s.db.Statement(ctx).
		Select("organization_id", "require_domain_match", "allowed_invitation_domains", "updated_at").
		From("organization_settings").
		Where(sq.Eq{"organization_id": organizationID}).
		QueryRowContext(ctx).
		Scan(&settings.OrganizationID, &settings.RequireDomainMatch, textArray(&settings.AllowedInvitationDomains), &settings.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization settings: %w", err)
	}

	return &settings, nil
}

func (s *Storage) UpsertOrganizationSettings(ctx context.Context, settings *types.OrganizationSettings) (*types.OrganizationSettings, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertOrganizationSettings")
	defer span.End()

	var saved types.OrganizationSettings
	err := s.db.Statement(ctx).
		Insert("organization_settings").
		Columns("organization_id", "require_domain_match", "allowed_invitation_domains").
		Values(settings.OrganizationID, settings.RequireDomainMatch, stringArray(settings.AllowedInvitationDomains)).
		Suffix(`ON CONFLICT (organization_id) DO UPDATE SET
			require_domain_match = EXCLUDED.require_domain_match,
			allowed_invitation_domains = EXCLUDED.allowed_invitation_domains,
			updated_at = now()
			RETURNING organization_id, require_domain_match, allowed_invitation_domains, updated_at`).
		QueryRowContext(ctx).
		Scan(&saved.OrganizationID, &saved.RequireDomainMatch, textArray(&saved.AllowedInvitationDomains), &saved.UpdatedAt)
	if err != nil {
		return nil, wrapWriteError(err, "failed to save organization settings")
	}

	return &saved, nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProjectByID")
	defer span.End()

	var p types.Project
	err := s.db.Statement(ctx).
		Select("id", "organization_id", "name", "created_at").
		From("projects").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.OrganizationID, &p.Name, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

func (s *Storage) CreateProject(ctx context.Context, p *types.Project) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateProject")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var created types.Project
	err = s.db.Statement(ctx).
		Insert("projects").
		Columns("id", "organization_id", "name").
		Values(id, p.OrganizationID, p.Name).
		Suffix("RETURNING id, organization_id, name, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.OrganizationID, &created.Name, &created.CreatedAt)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert project")
	}

	return &created, nil
}
