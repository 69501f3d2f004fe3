// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"context"
	"sync"
	"time"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/tracing"
)

const (
	DefaultHousekeepingInterval  = time.Hour
	DefaultHousekeepingRetention = 30 * 24 * time.Hour
)

// Housekeeper periodically purges invitations that were used or expired
// longer than the retention window ago.
type Housekeeper struct {
	service   ServiceInterface
	interval  time.Duration
	retention time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

// Start runs a purge immediately and then on every tick until Stop is called.
func (h *Housekeeper) Start() {
	go h.run()
	h.logger.Infof("invitation housekeeping started, interval %s, retention %s", h.interval, h.retention)
}

// Stop blocks until an in-flight purge has finished.
func (h *Housekeeper) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		<-h.doneCh
		h.logger.Info("invitation housekeeping stopped")
	})
}

func (h *Housekeeper) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			h.RunOnce(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// RunOnce performs a single purge and reports how many rows were removed.
func (h *Housekeeper) RunOnce(ctx context.Context) int64 {
	ctx, span := h.tracer.Start(ctx, "invitations.Housekeeper.RunOnce")
	defer span.End()

	purged, err := h.service.PurgeInvitations(ctx, h.retention)
	if err != nil {
		h.logger.Errorf("failed to purge invitations: %v", err)
		return 0
	}

	h.logger.Debugf("purged %d invitations", purged)
	return purged
}

func NewHousekeeper(service ServiceInterface, interval, retention time.Duration, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Housekeeper {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	if retention <= 0 {
		retention = DefaultHousekeepingRetention
	}

	return &Housekeeper{
		service:   service,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		tracer:    tracer,
		logger:    logger,
	}
}
