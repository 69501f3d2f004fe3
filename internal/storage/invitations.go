// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/types"
)

var invitationColumns = []string{
	"id", "token", "email", "organization_id", "project_id", "invited_role", "temp_password_hash",
	"invited_by", "message", "expires_at", "is_used", "used_at", "created_at",
}

func scanInvitation(row rowScanner) (*types.Invitation, error) {
	var (
		i         types.Invitation
		projectID sql.NullString
		message   sql.NullString
		usedAt    sql.NullTime
	)

	err := row.Scan(
		&i.ID, &i.Token, &i.Email, &i.OrganizationID, &projectID, &i.InvitedRole, &i.TempPassword,
		&i.InvitedBy, &message, &i.ExpiresAt, &i.IsUsed, &usedAt, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.ProjectID = projectID.String
	i.Message = message.String
	if usedAt.Valid {
		t := usedAt.Time
		i.UsedAt = &t
	}

	return &i, nil
}

func (s *Storage) CreateInvitation(ctx context.Context, i *types.Invitation) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvitation")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	created, err := scanInvitation(
		s.db.Statement(ctx).
			Insert("invitations").
			Columns("id", "token", "email", "organization_id", "project_id", "invited_role", "temp_password_hash", "invited_by", "message", "expires_at").
			Values(
				id, i.Token, strings.ToLower(strings.TrimSpace(i.Email)), i.OrganizationID, nullable(i.ProjectID),
				string(i.InvitedRole), i.TempPassword, i.InvitedBy, nullable(i.Message), i.ExpiresAt,
			).
			Suffix("RETURNING " + strings.Join(invitationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert invitation")
	}

	return created, nil
}

func (s *Storage) GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByToken")
	defer span.End()

	return s.getInvitationByToken(ctx, token, "")
}

// GetInvitationByTokenForUpdate locks the invitation row so concurrent
// acceptances of the same token queue behind each other.
func (s *Storage) GetInvitationByTokenForUpdate(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByTokenForUpdate")
	defer span.End()

	return s.getInvitationByToken(ctx, token, "FOR UPDATE")
}

func (s *Storage) getInvitationByToken(ctx context.Context, token, suffix string) (*types.Invitation, error) {
	query := s.db.Statement(ctx).
		Select(invitationColumns...).
		From("invitations").
		Where(sq.Eq{"token": token})

	if suffix != "" {
		query = query.Suffix(suffix)
	}

	i, err := scanInvitation(query.QueryRowContext(ctx))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return i, nil
}

// MarkInvitationUsed flips is_used only if it is still false. ErrAlreadyUsed
// means another acceptance won.
func (s *Storage) MarkInvitationUsed(ctx context.Context, id string, usedAt time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkInvitationUsed")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("is_used", true).
		Set("used_at", usedAt).
		Where(sq.Eq{"id": id, "is_used": false}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyUsed
	}

	return nil
}

// ListPendingInvitations returns unused invitations that expire after now,
// newest first.
func (s *Storage) ListPendingInvitations(ctx context.Context, organizationID string, now time.Time) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPendingInvitations")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(invitationColumns...).
		From("invitations").
		Where(sq.Eq{"organization_id": organizationID, "is_used": false}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("created_at DESC", "id DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*types.Invitation, 0)
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invitations, nil
}

// DeletePendingInvitation removes the invitation only when it belongs to
// organizationID, is unused and was issued by invitedBy. It reports whether a
// row was deleted.
func (s *Storage) DeletePendingInvitation(ctx context.Context, organizationID, id, invitedBy string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.DeletePendingInvitation")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("invitations").
		Where(sq.Eq{"id": id, "organization_id": organizationID, "invited_by": invitedBy, "is_used": false}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete invitation: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows > 0, nil
}

// PurgeInvitations deletes invitations used or expired before cutoff.
func (s *Storage) PurgeInvitations(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.PurgeInvitations")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("invitations").
		Where(sq.Or{
			sq.Lt{"expires_at": cutoff},
			sq.And{sq.Eq{"is_used": true}, sq.Lt{"used_at": cutoff}},
		}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge invitations: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows, nil
}
