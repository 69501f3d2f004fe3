// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/authorization"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type sendInvitationRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=viewer member admin owner"`
	ProjectID string `json:"project_id" validate:"omitempty,uuid"`
	Message   string `json:"message" validate:"max=2000"`
}

type acceptInvitationRequest struct {
	Token             string `json:"token" validate:"required"`
	TemporaryPassword string `json:"temporary_password" validate:"required"`
	NewPassword       string `json:"new_password" validate:"required,min=8,max=72"`
	FirstName         string `json:"first_name" validate:"max=100"`
	LastName          string `json:"last_name" validate:"max=100"`
}

type API struct {
	service ServiceInterface

	authn       AuthenticationMiddlewareInterface
	authz       AuthorizationMiddlewareInterface
	acceptLimit func(http.Handler) http.Handler

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Group(func(r chi.Router) {
		r.Use(a.authn.Authenticate())

		r.With(a.authz.RequireRole(types.RoleAdmin)).Post("/organizations/{organization_id}/invitations", a.handleSend)
		r.With(a.authz.RequireRole(types.RoleAdmin)).Get("/organizations/{organization_id}/invitations", a.handleList)
		r.With(a.authz.RequireRole(types.RoleMember)).Delete("/organizations/{organization_id}/invitations/{invitation_id}", a.handleCancel)
	})

	mux.With(a.acceptLimit).Post("/invitations/accept", a.handleAccept)
}

func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitations.API.handleSend")
	defer span.End()

	var body sendInvitationRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	role := types.Role(body.Role)
	if role == types.RoleOwner {
		if m, ok := authorization.MembershipFromContext(ctx); !ok || m.Role != types.RoleOwner {
			httptypes.WriteErrorMessage(w, http.StatusForbidden, "Only owners can invite owners")
			return
		}
	}

	userID, _ := authentication.GetUserID(ctx)

	result, err := a.service.SendOrganizationInvitation(ctx, &SendRequest{
		Email:          body.Email,
		OrganizationID: chi.URLParam(r, authorization.OrganizationParam),
		Role:           role,
		InviterID:      userID,
		ProjectID:      body.ProjectID,
		Message:        body.Message,
	})
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, result, "Invitation sent")
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitations.API.handleList")
	defer span.End()

	invitations, err := a.service.GetPendingInvitations(ctx, chi.URLParam(r, authorization.OrganizationParam))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if invitations == nil {
		invitations = []*types.Invitation{}
	}

	httptypes.WriteJSON(w, http.StatusOK, invitations, "Pending invitations")
}

func (a *API) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitations.API.handleCancel")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	cancelled, err := a.service.CancelInvitation(ctx, chi.URLParam(r, "organization_id"), chi.URLParam(r, "invitation_id"), userID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if !cancelled {
		httptypes.WriteErrorMessage(w, http.StatusNotFound, "Invitation not found or already accepted")
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, map[string]bool{"cancelled": true}, "Invitation cancelled")
}

func (a *API) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitations.API.handleAccept")
	defer span.End()

	var body acceptInvitationRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	result, err := a.service.AcceptInvitation(ctx, &AcceptRequest{
		Token:             body.Token,
		TemporaryPassword: body.TemporaryPassword,
		NewPassword:       body.NewPassword,
		FirstName:         body.FirstName,
		LastName:          body.LastName,
	})
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, result, "Invitation accepted")
}

func NewAPI(
	service ServiceInterface,
	authn AuthenticationMiddlewareInterface,
	authz AuthorizationMiddlewareInterface,
	acceptLimit func(http.Handler) http.Handler,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	if acceptLimit == nil {
		acceptLimit = func(next http.Handler) http.Handler { return next }
	}

	return &API{
		service:     service,
		authn:       authn,
		authz:       authz,
		acceptLimit: acceptLimit,
		tracer:      tracer,
		monitor:     monitor,
		logger:      logger,
	}
}
