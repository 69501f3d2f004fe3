// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint   string  `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint   string  `envconfig:"otel_http_endpoint"`
	TracingSampleRatio float64 `envconfig:"tracing_sample_ratio" default:"1"`
	TracingEnabled     bool    `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthenticationEnabled         bool     `envconfig:"authentication_enabled" default:"false"`
	AuthenticationIssuer          string   `envconfig:"authentication_issuer"`
	AuthenticationJwksURL         string   `envconfig:"authentication_jwks_url"`
	AuthenticationAllowedSubjects []string `envconfig:"authentication_allowed_subjects"`
	AuthenticationRequiredScope   string   `envconfig:"authentication_required_scope"`
	AuthenticationUserClaim       string   `envconfig:"authentication_user_claim" default:"sub"`

	FrontendURL        string        `envconfig:"frontend_url" default:"http://localhost:3000"`
	InvitationLifetime time.Duration `envconfig:"invitation_lifetime" default:"168h"`
	BcryptCost         int           `envconfig:"bcrypt_cost" default:"12"`

	SMTPHost     string        `envconfig:"smtp_host" default:"localhost"`
	SMTPPort     int           `envconfig:"smtp_port" default:"587"`
	SMTPUser     string        `envconfig:"smtp_user"`
	SMTPPassword string        `envconfig:"smtp_password"`
	SMTPFrom     string        `envconfig:"smtp_from" default:"noreply@localhost"`
	SMTPTimeout  time.Duration `envconfig:"smtp_timeout" default:"10s"`

	HousekeepingInterval  time.Duration `envconfig:"housekeeping_interval" default:"1h"`
	HousekeepingRetention time.Duration `envconfig:"housekeeping_retention" default:"720h"`

	AcceptRateLimit int `envconfig:"accept_rate_limit" default:"10"`
	AcceptRateBurst int `envconfig:"accept_rate_burst" default:"5"`

	// TrustProxyHeaders keys the rate limiter on X-Forwarded-For/X-Real-IP.
	TrustProxyHeaders  bool     `envconfig:"trust_proxy_headers" default:"false"`
	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`
}
