// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime           *prometheus.HistogramVec
	dependencyAvailability *prometheus.GaugeVec
	invitations            *prometheus.CounterVec
	emails                 *prometheus.CounterVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.responseTime.With(tags).Observe(value)

	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencyAvailability == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.dependencyAvailability.With(tags).Set(value)

	return nil
}

// IncrementInvitationMetric expects an "outcome" tag (issued, accepted, cancelled, rejected)
func (m *Monitor) IncrementInvitationMetric(tags map[string]string) error {
	if m.invitations == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.invitations.With(tags).Inc()

	return nil
}

// IncrementEmailMetric expects an "outcome" tag (sent, skipped, failed)
func (m *Monitor) IncrementEmailMetric(tags map[string]string) error {
	if m.emails == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.emails.With(tags).Inc()

	return nil
}

func (m *Monitor) registerHistograms() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "http_response_time_seconds",
		},
		[]string{"route", "status"},
	)

	m.register(m.responseTime)
}

func (m *Monitor) registerGauges() {
	m.dependencyAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "dependency_available",
		},
		[]string{"component"},
	)

	m.register(m.dependencyAvailability)
}

func (m *Monitor) registerCounters() {
	m.invitations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_total",
			Help: "invitations_total",
		},
		[]string{"outcome"},
	)
	m.emails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_total",
			Help: "emails_total",
		},
		[]string{"outcome"},
	)

	m.register(m.invitations)
	m.register(m.emails)
}

func (m *Monitor) register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerHistograms()
	m.registerGauges()
	m.registerCounters()

	return m
}
