// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"fmt"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var _ ServiceInterface = (*Service)(nil)

// ListOptions filters a user's notifications. Page is 1-based.
type ListOptions struct {
	UnreadOnly bool
	Type       types.NotificationType
	Page       int
	Size       int
}

func (o ListOptions) filter() storage.NotificationFilter {
	offset, limit := storage.Window(o.Page, o.Size, DefaultPageSize, MaxPageSize)

	return storage.NotificationFilter{
		UnreadOnly: o.UnreadOnly,
		Type:       o.Type,
		Offset:     offset,
		Limit:      limit,
	}
}

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Notify persists n for its recipient. A missing priority defaults to normal.
func (s *Service) Notify(ctx context.Context, n *types.Notification) error {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.Notify")
	defer span.End()

	if n.UserID == "" {
		return validation.New("Notification recipient is required")
	}
	if n.Title == "" || n.Type == "" {
		return validation.New("Notification title and type are required")
	}

	priority, err := types.ParsePriority(string(n.Priority))
	if err != nil {
		return validation.New(err.Error())
	}
	n.Priority = priority

	if _, err := s.storage.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]*types.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.List")
	defer span.End()

	notifications, err := s.storage.ListNotifications(ctx, userID, opts.filter())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead returns storage.ErrNotFound when the notification does not belong to userID.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.MarkRead")
	defer span.End()

	return s.storage.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.MarkAllRead")
	defer span.End()

	return s.storage.MarkAllNotificationsRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.Delete")
	defer span.End()

	return s.storage.DeleteNotification(ctx, userID, notificationID)
}

func (s *Service) Stats(ctx context.Context, userID string) (*types.NotificationStats, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.Service.Stats")
	defer span.End()

	stats, err := s.storage.GetNotificationStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}

	return stats, nil
}

func NewService(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.storage = storage
	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
