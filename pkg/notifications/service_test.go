// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_notifications.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package notifications -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func newTestService(ctrl *gomock.Controller, span string) (*Service, *MockStorageInterface) {
	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), span).
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	return NewService(mockStorage, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl)), mockStorage
}

func TestService_Notify(t *testing.T) {
	tests := []struct {
		name             string
		notification     *types.Notification
		storageErr       error
		expectStore      bool
		expectValidation bool
		expectedPriority types.Priority
	}{
		{
			name:             "priority defaults to normal",
			notification:     &types.Notification{UserID: "user-1", Title: "Welcome", Type: types.NotificationTeamInviteAccepted},
			expectStore:      true,
			expectedPriority: types.PriorityNormal,
		},
		{
			name:             "explicit priority is kept",
			notification:     &types.Notification{UserID: "user-1", Title: "Removed", Type: types.NotificationMemberRemoved, Priority: types.PriorityHigh},
			expectStore:      true,
			expectedPriority: types.PriorityHigh,
		},
		{
			name:             "unknown priority",
			notification:     &types.Notification{UserID: "user-1", Title: "x", Type: types.NotificationRoleChanged, Priority: "critical"},
			expectValidation: true,
		},
		{
			name:             "missing recipient",
			notification:     &types.Notification{Title: "x", Type: types.NotificationRoleChanged},
			expectValidation: true,
		},
		{
			name:         "storage failure",
			notification: &types.Notification{UserID: "user-1", Title: "x", Type: types.NotificationRoleChanged},
			storageErr:   errors.New("db error"),
			expectStore:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, mockStorage := newTestService(ctrl, "notifications.Service.Notify")

			if tt.expectStore {
				mockStorage.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, n *types.Notification) (*types.Notification, error) {
						if tt.storageErr != nil {
							return nil, tt.storageErr
						}
						if n.Priority != tt.expectedPriority {
							t.Errorf("expected priority %s, got %s", tt.expectedPriority, n.Priority)
						}
						return n, nil
					},
				)
			}

			err := svc.Notify(context.Background(), tt.notification)

			switch {
			case tt.expectValidation:
				if !validation.IsValidationError(err) {
					t.Errorf("expected validation error, got %v", err)
				}
			case tt.storageErr != nil:
				if !errors.Is(err, tt.storageErr) {
					t.Errorf("expected %v, got %v", tt.storageErr, err)
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_List(t *testing.T) {
	tests := []struct {
		name     string
		opts     ListOptions
		expected storage.NotificationFilter
	}{
		{
			name:     "defaults",
			opts:     ListOptions{},
			expected: storage.NotificationFilter{Offset: 0, Limit: DefaultPageSize},
		},
		{
			name:     "third page of unread invites",
			opts:     ListOptions{UnreadOnly: true, Type: types.NotificationTeamInvite, Page: 3, Size: 10},
			expected: storage.NotificationFilter{UnreadOnly: true, Type: types.NotificationTeamInvite, Offset: 20, Limit: 10},
		},
		{
			name:     "size is capped",
			opts:     ListOptions{Page: 1, Size: 1000},
			expected: storage.NotificationFilter{Offset: 0, Limit: MaxPageSize},
		},
		{
			name:     "huge page saturates the offset",
			opts:     ListOptions{Page: math.MaxInt, Size: 10},
			expected: storage.NotificationFilter{Offset: math.MaxInt64, Limit: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, mockStorage := newTestService(ctrl, "notifications.Service.List")
			mockStorage.EXPECT().ListNotifications(gomock.Any(), "user-1", tt.expected).
				Return([]*types.Notification{{ID: "n-1"}}, nil)

			result, err := svc.List(context.Background(), "user-1", tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) != 1 {
				t.Errorf("expected one notification, got %d", len(result))
			}
		})
	}
}

func TestService_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockStorage := newTestService(ctrl, "notifications.Service.MarkRead")
	mockStorage.EXPECT().MarkNotificationRead(gomock.Any(), "user-1", "n-9").Return(storage.ErrNotFound)

	if err := svc.MarkRead(context.Background(), "user-1", "n-9"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_MarkAllRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockStorage := newTestService(ctrl, "notifications.Service.MarkAllRead")
	mockStorage.EXPECT().MarkAllNotificationsRead(gomock.Any(), "user-1").Return(int64(5), nil)

	updated, err := svc.MarkAllRead(context.Background(), "user-1")
	if err != nil || updated != 5 {
		t.Errorf("expected 5 updated, got %d (%v)", updated, err)
	}
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockStorage := newTestService(ctrl, "notifications.Service.Delete")
	mockStorage.EXPECT().DeleteNotification(gomock.Any(), "user-1", "n-1").Return(nil)

	if err := svc.Delete(context.Background(), "user-1", "n-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockStorage := newTestService(ctrl, "notifications.Service.Stats")
	mockStorage.EXPECT().GetNotificationStats(gomock.Any(), "user-1").
		Return(&types.NotificationStats{Total: 3, Unread: 1, Read: 2}, nil)

	stats, err := svc.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != stats.Read+stats.Unread {
		t.Errorf("inconsistent stats %+v", stats)
	}
}
