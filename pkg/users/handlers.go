// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type API struct {
	service ServiceInterface
	authn   AuthenticationMiddlewareInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/users", a.handleRegister)
	mux.With(a.authn.Authenticate()).Get("/users/me", a.handleMe)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.handleRegister")
	defer span.End()

	var body RegisterRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	reg, err := a.service.Register(ctx, &body)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, reg, "Account created")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "users.API.handleMe")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	user, err := a.service.GetUser(ctx, userID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, user, "Current user")
}

func NewAPI(
	service ServiceInterface,
	authn AuthenticationMiddlewareInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service: service,
		authn:   authn,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
