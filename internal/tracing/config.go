// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/canonical/workspace-service/internal/logging"
)

type Config struct {
	Enabled bool

	// GRPCEndpoint wins over HTTPEndpoint, spans go to stdout when both are empty.
	GRPCEndpoint string
	HTTPEndpoint string

	// SampleRatio of new root traces, values outside (0,1) sample everything.
	SampleRatio float64

	Logger logging.LoggerInterface
}

func (c *Config) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}

	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

func NewConfig(enabled bool, grpcEndpoint, httpEndpoint string, sampleRatio float64, logger logging.LoggerInterface) *Config {
	c := new(Config)

	c.Enabled = enabled
	c.GRPCEndpoint = grpcEndpoint
	c.HTTPEndpoint = httpEndpoint
	c.SampleRatio = sampleRatio
	c.Logger = logger

	return c
}

func NewNoopConfig() *Config {
	return &Config{Logger: logging.NewNoopLogger()}
}
