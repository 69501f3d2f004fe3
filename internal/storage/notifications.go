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

var notificationColumns = []string{
	"id", "user_id", "organization_id", "title", "message", "type", "priority",
	"action_url", "metadata", "read", "read_at", "created_at",
}

// NotificationFilter narrows ListNotifications.
type NotificationFilter struct {
	UnreadOnly bool
	Type       types.NotificationType
	Offset     uint64
	Limit      uint64
}

func scanNotification(row rowScanner) (*types.Notification, error) {
	var (
		n              types.Notification
		organizationID sql.NullString
		actionURL      sql.NullString
		metadata       []byte
		readAt         sql.NullTime
	)

	err := row.Scan(
		&n.ID, &n.UserID, &organizationID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&actionURL, &metadata, &n.Read, &readAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.OrganizationID = organizationID.String
	n.ActionURL = actionURL.String
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	if n.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}

	return &n, nil
}

func (s *Storage) CreateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateNotification")
	defer span.End()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	metadata, err := encodeMetadata(n.Metadata)
	if err != nil {
		return nil, err
	}

	created, err := scanNotification(
		s.db.Statement(ctx).
			Insert("notifications").
			Columns("id", "user_id", "organization_id", "title", "message", "type", "priority", "action_url", "metadata").
			Values(
				id, n.UserID, nullable(n.OrganizationID), n.Title, n.Message, string(n.Type), string(n.Priority),
				nullable(n.ActionURL), sq.Expr("?::jsonb", metadata),
			).
			Suffix("RETURNING " + strings.Join(notificationColumns, ", ")).
			QueryRowContext(ctx),
	)
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert notification")
	}

	return created, nil
}

func (s *Storage) ListNotifications(ctx context.Context, userID string, filter NotificationFilter) ([]*types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListNotifications")
	defer span.End()

	query := s.db.Statement(ctx).
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"user_id": userID})

	if filter.UnreadOnly {
		query = query.Where(sq.Eq{"read": false})
	}

	if filter.Type != "" {
		query = query.Where(sq.Eq{"type": string(filter.Type)})
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	rows, err := query.
		OrderBy("created_at DESC", "id DESC").
		Offset(filter.Offset).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*types.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return notifications, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.MarkNotificationRead")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("notifications").
		Set("read", true).
		Set("read_at", sq.Expr("COALESCE(read_at, now())")).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
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

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.MarkAllNotificationsRead")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("notifications").
		Set("read", true).
		Set("read_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID, "read": false}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows, nil
}

func (s *Storage) DeleteNotification(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteNotification")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("notifications").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
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

func (s *Storage) GetNotificationStats(ctx context.Context, userID string) (*types.NotificationStats, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetNotificationStats")
	defer span.End()

	var stats types.NotificationStats
	err := s.db.Statement(ctx).
		Select("count(*)", "count(*) FILTER (WHERE NOT read)").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		QueryRowContext(ctx).
		Scan(&stats.Total, &stats.Unread)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}

	stats.Read = stats.Total - stats.Unread
	return &stats, nil
}
