// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"net/http"

	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	Notify(ctx context.Context, n *types.Notification) error
	List(ctx context.Context, userID string, opts ListOptions) ([]*types.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, notificationID string) error
	Stats(ctx context.Context, userID string) (*types.NotificationStats, error)
}

type StorageInterface interface {
	CreateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error)
	ListNotifications(ctx context.Context, userID string, filter storage.NotificationFilter) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	GetNotificationStats(ctx context.Context, userID string) (*types.NotificationStats, error)
}

type AuthenticationMiddlewareInterface interface {
	Authenticate() func(http.Handler) http.Handler
}
