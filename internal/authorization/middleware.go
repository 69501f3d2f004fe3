// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

// OrganizationParam is the chi route parameter carrying the organization ID.
const OrganizationParam = "organization_id"

type Middleware struct {
	authorizer AuthorizerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RequireRole rejects requests whose authenticated user does not hold at
// least minimum in the organization named by the route.
func (m *Middleware) RequireRole(minimum types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authorization.Middleware.RequireRole")
			defer span.End()

			userID, ok := authentication.GetUserID(ctx)
			if !ok || userID == "" {
				m.errorResponse(w, http.StatusUnauthorized, "missing user identity")
				return
			}

			organizationID := chi.URLParam(r, OrganizationParam)

			membership, err := m.authorizer.CheckOrganizationAccess(ctx, organizationID, userID, minimum)
			if errors.Is(err, ErrForbidden) {
				m.logger.Security().AuthorizationFailure(organizationID, userID, minimum.String())
				m.errorResponse(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			if err != nil {
				m.errorResponse(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithMembership(ctx, membership)))
		})
	}
}

func (m *Middleware) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": message,
	}); err != nil {
		m.logger.Errorf("failed to encode authorization response: %v", err)
	}
}

func NewMiddleware(authorizer AuthorizerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		authorizer: authorizer,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
