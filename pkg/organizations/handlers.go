// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organizations

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

type API struct {
	service ServiceInterface
	authn   AuthenticationMiddlewareInterface
	authz   AuthorizationMiddlewareInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Group(func(r chi.Router) {
		r.Use(a.authn.Authenticate())

		r.Get("/organizations", a.handleList)
		r.Post("/organizations", a.handleCreate)

		r.Route("/organizations/{organization_id}", func(r chi.Router) {
			viewer := a.authz.RequireRole(types.RoleViewer)
			admin := a.authz.RequireRole(types.RoleAdmin)
			owner := a.authz.RequireRole(types.RoleOwner)

			r.With(viewer).Get("/", a.handleGet)
			r.With(admin).Patch("/", a.handleUpdate)
			r.With(owner).Delete("/", a.handleDelete)

			r.With(admin).Get("/settings", a.handleGetSettings)
			r.With(admin).Put("/settings", a.handleUpdateSettings)

			r.With(admin).Post("/projects", a.handleCreateProject)

			r.With(viewer).Get("/members", a.handleListMembers)
			r.With(admin).Post("/members", a.handleAddMember)
			r.With(admin).Put("/members/{user_id}/role", a.handleUpdateMemberRole)
			r.With(admin).Delete("/members/{user_id}", a.handleRemoveMember)
		})
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleList")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	orgs, err := a.service.ListOrganizations(ctx, userID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if orgs == nil {
		orgs = []*types.Organization{}
	}

	httptypes.WriteJSON(w, http.StatusOK, orgs, "Organizations")
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleCreate")
	defer span.End()

	var body OrganizationRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	userID, _ := authentication.GetUserID(ctx)

	org, err := a.service.CreateOrganization(ctx, userID, &body)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, org, "Organization created")
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleGet")
	defer span.End()

	org, err := a.service.GetOrganization(ctx, chi.URLParam(r, authorization.OrganizationParam))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, org, "Organization")
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleUpdate")
	defer span.End()

	var body OrganizationUpdate
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	org, err := a.service.UpdateOrganization(ctx, chi.URLParam(r, authorization.OrganizationParam), &body)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, org, "Organization updated")
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleDelete")
	defer span.End()

	if err := a.service.DeleteOrganization(ctx, chi.URLParam(r, authorization.OrganizationParam)); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, nil, "Organization deleted")
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleGetSettings")
	defer span.End()

	settings, err := a.service.GetSettings(ctx, chi.URLParam(r, authorization.OrganizationParam))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, settings, "Organization settings")
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleUpdateSettings")
	defer span.End()

	var body SettingsRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	settings, err := a.service.UpdateSettings(ctx, chi.URLParam(r, authorization.OrganizationParam), &body)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, settings, "Organization settings updated")
}

func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleCreateProject")
	defer span.End()

	var body projectRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	project, err := a.service.CreateProject(ctx, chi.URLParam(r, authorization.OrganizationParam), body.Name)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, project, "Project created")
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleListMembers")
	defer span.End()

	page := httptypes.ParsePagination(r)

	members, err := a.service.ListMembers(ctx, chi.URLParam(r, authorization.OrganizationParam), page.Page, page.Size)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if members == nil {
		members = []*types.Member{}
	}

	httptypes.WritePage(w, members, page, "Members")
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleAddMember")
	defer span.End()

	var body addMemberRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	actor, _ := authorization.MembershipFromContext(ctx)

	membership, err := a.service.AddMember(ctx, chi.URLParam(r, authorization.OrganizationParam), body.Email, types.Role(body.Role), actor)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, membership, "Member added")
}

func (a *API) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleUpdateMemberRole")
	defer span.End()

	var body updateRoleRequest
	if err := httptypes.Bind(r, &body); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	actor, _ := authorization.MembershipFromContext(ctx)

	membership, err := a.service.UpdateMemberRole(
		ctx,
		chi.URLParam(r, authorization.OrganizationParam),
		chi.URLParam(r, "user_id"),
		types.Role(body.Role),
		actor,
	)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, membership, "Member role updated")
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "organizations.API.handleRemoveMember")
	defer span.End()

	actor, _ := authorization.MembershipFromContext(ctx)

	err := a.service.RemoveMember(ctx, chi.URLParam(r, authorization.OrganizationParam), chi.URLParam(r, "user_id"), actor)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, nil, "Member removed")
}

func NewAPI(
	service ServiceInterface,
	authn AuthenticationMiddlewareInterface,
	authz AuthorizationMiddlewareInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service: service,
		authn:   authn,
		authz:   authz,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
