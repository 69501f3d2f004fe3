// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/version"
)

const pingTimeout = 2 * time.Second

type Status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type API struct {
	db DBPingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/status", a.alive)
	mux.Get("/version", a.version)
}

// alive reports 503 while the database is unreachable.
func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	tags := map[string]string{"component": "database"}

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Errorf("database ping failed: %v", err)
		a.setAvailability(tags, 0)

		httptypes.WriteJSON(w, http.StatusServiceUnavailable, Status{Status: "degraded", Database: "unavailable"}, "Service degraded")
		return
	}

	a.setAvailability(tags, 1)
	httptypes.WriteJSON(w, http.StatusOK, Status{Status: "ok", Database: "ok"}, "Service healthy")
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.version")
	defer span.End()

	httptypes.WriteJSON(w, http.StatusOK, version.Info(), "Build info")
}

func (a *API) setAvailability(tags map[string]string, value float64) {
	if err := a.monitor.SetDependencyAvailability(tags, value); err != nil {
		a.logger.Debugf("error setting dependency availability metric: %v", err)
	}
}

func NewAPI(db DBPingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.db = db
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
