// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

func (s *Storage) AddMember(ctx context.Context, m *types.Membership) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.AddMember")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	var (
		created   types.Membership
		invitedBy sql.NullString
	)

	err = s.db.Statement(ctx).
		Insert("organization_members").
		Columns("id", "organization_id", "user_id", "role", "invited_by").
		Values(id, m.OrganizationID, m.UserID, string(m.Role), nullable(m.InvitedBy)).
		Suffix("RETURNING id, organization_id, user_id, role, invited_by, joined_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.OrganizationID, &created.UserID, &created.Role, &invitedBy, &created.JoinedAt)
	if err != nil {
		return nil, wrapWriteError(err, "failed to add member")
	}

	created.InvitedBy = invitedBy.String
	return &created, nil
}

func (s *Storage) GetMembership(ctx context.Context, organizationID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	var (
		m         types.Membership
		invitedBy sql.NullString
	)

	err := s.db.Statement(ctx).
		Select("id", "organization_id", "user_id", "role", "invited_by", "joined_at").
		From("organization_members").
		Where(sq.Eq{"organization_id": organizationID, "user_id": userID}).
		QueryRowContext(ctx).
		Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &invitedBy, &m.JoinedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	m.InvitedBy = invitedBy.String
	return &m, nil
}

// ListMembers returns the organization's members in join order.
func (s *Storage) ListMembers(ctx context.Context, organizationID string, offset, limit uint64) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembers")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("m.id", "m.organization_id", "m.user_id", "m.role", "m.invited_by", "m.joined_at", "u.email", "u.first_name", "u.last_name").
		From("organization_members m").
		Join("users u ON u.id = m.user_id").
		Where(sq.Eq{"m.organization_id": organizationID}).
		OrderBy("m.joined_at ASC", "m.id ASC").
		Offset(offset).
		Limit(limit).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*types.Member, 0)
	for rows.Next() {
		var (
			m         types.Member
			invitedBy sql.NullString
		)

		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &invitedBy, &m.JoinedAt, &m.Email, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		m.InvitedBy = invitedBy.String
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) UpdateMemberRole(ctx context.Context, organizationID, userID string, role types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRole")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("organization_members").
		Set("role", string(role)).
		Where(sq.Eq{"organization_id": organizationID, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
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

func (s *Storage) RemoveMember(ctx context.Context, organizationID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMember")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("organization_members").
		Where(sq.Eq{"organization_id": organizationID, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
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

func (s *Storage) CountOwners(ctx context.Context, organizationID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountOwners")
	defer span.End()

	var count int64
	err := s.db.Statement(ctx).
		Select("count(*)").
		From("organization_members").
		Where(sq.Eq{"organization_id": organizationID, "role": string(types.RoleOwner)}).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}

	return count, nil
}
