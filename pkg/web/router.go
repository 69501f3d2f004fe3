// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/invitations"
	"github.com/canonical/workspace-service/pkg/metrics"
	"github.com/canonical/workspace-service/pkg/notifications"
	"github.com/canonical/workspace-service/pkg/organizations"
	"github.com/canonical/workspace-service/pkg/status"
	"github.com/canonical/workspace-service/pkg/users"
)

const APIPrefix = "/api/v0"

type Config struct {
	CORSAllowedOrigins []string
	AcceptRateLimit    RateLimitConfig
}

// Dependencies are the shared collaborators the HTTP surface is built from.
type Dependencies struct {
	Storage     storage.StorageInterface
	DB          db.DBClientInterface
	Verifier    authentication.TokenVerifierInterface
	Hasher      users.HasherInterface
	Invitations invitations.ServiceInterface
	Notifier    *notifications.Service
}

func NewRouter(
	cfg Config,
	deps Dependencies,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		middleware.Recoverer,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSAllowedOrigins),
	)

	router.Use(middlewares...)

	authn := authentication.NewMiddleware(deps.Verifier, tracer, monitor, logger)
	authz := authorization.NewMiddleware(
		authorization.NewAuthorizer(deps.Storage, tracer, monitor, logger),
		tracer, monitor, logger,
	)
	acceptLimit := NewRateLimiter(cfg.AcceptRateLimit, logger).Middleware()

	organizationSvc := organizations.NewService(deps.Storage, deps.DB, deps.Notifier, tracer, monitor, logger)
	userSvc := users.NewService(deps.Storage, deps.DB, deps.Hasher, tracer, monitor, logger)

	router.Route(APIPrefix, func(r chi.Router) {
		metrics.NewAPI(logger).RegisterEndpoints(r)
		status.NewAPI(deps.DB, tracer, monitor, logger).RegisterEndpoints(r)

		users.NewAPI(userSvc, authn, tracer, monitor, logger).RegisterEndpoints(r)
		organizations.NewAPI(organizationSvc, authn, authz, tracer, monitor, logger).RegisterEndpoints(r)
		invitations.NewAPI(deps.Invitations, authn, authz, acceptLimit, tracer, monitor, logger).RegisterEndpoints(r)
		notifications.NewAPI(deps.Notifier, authn, tracer, monitor, logger).RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(
		cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		},
	)
}
