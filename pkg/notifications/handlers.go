// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package notifications

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/authentication"
)

var knownTypes = map[types.NotificationType]bool{
	types.NotificationTeamInvite:         true,
	types.NotificationTeamInviteAccepted: true,
	types.NotificationRoleChanged:        true,
	types.NotificationMemberRemoved:      true,
}

type API struct {
	service ServiceInterface
	authn   AuthenticationMiddlewareInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Group(func(r chi.Router) {
		r.Use(a.authn.Authenticate())

		r.Get("/notifications", a.handleList)
		r.Get("/notifications/stats", a.handleStats)
		r.Put("/notifications/read-all", a.handleMarkAllRead)
		r.Put("/notifications/{notification_id}/read", a.handleMarkRead)
		r.Delete("/notifications/{notification_id}", a.handleDelete)
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.handleList")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)
	page := httptypes.ParsePagination(r)

	opts := ListOptions{Page: page.Page, Size: page.Size}

	if v := r.URL.Query().Get("unread_only"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			httptypes.WriteError(w, validation.Newf("invalid unread_only value '%s'", v), a.logger)
			return
		}
		opts.UnreadOnly = unread
	}

	if v := r.URL.Query().Get("type"); v != "" {
		if !knownTypes[types.NotificationType(v)] {
			httptypes.WriteError(w, validation.Newf("unknown notification type '%s'", v), a.logger)
			return
		}
		opts.Type = types.NotificationType(v)
	}

	notifications, err := a.service.List(ctx, userID, opts)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if notifications == nil {
		notifications = []*types.Notification{}
	}

	httptypes.WritePage(w, notifications, page, "Notifications")
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.handleStats")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	stats, err := a.service.Stats(ctx, userID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, stats, "Notification stats")
}

func (a *API) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.handleMarkAllRead")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	updated, err := a.service.MarkAllRead(ctx, userID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated}, "Notifications marked as read")
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.handleMarkRead")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	if err := a.service.MarkRead(ctx, userID, chi.URLParam(r, "notification_id")); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, nil, "Notification marked as read")
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "notifications.API.handleDelete")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	if err := a.service.Delete(ctx, userID, chi.URLParam(r, "notification_id")); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, nil, "Notification deleted")
}

func NewAPI(service ServiceInterface, authn AuthenticationMiddlewareInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		authn:   authn,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
