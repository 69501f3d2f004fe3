// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/config"
	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/monitoring/prometheus"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/domains"
	"github.com/canonical/workspace-service/pkg/invitations"
	"github.com/canonical/workspace-service/pkg/notifications"
	"github.com/canonical/workspace-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return fmt.Errorf("issues with environment sourcing: %w", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("workspace-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, specs.TracingSampleRatio, logger))

	dbClient, err := db.NewDBClient(
		db.Config{
			DSN:             specs.DSN,
			MaxConns:        specs.DBMaxConns,
			MinConns:        specs.DBMinConns,
			MaxConnLifetime: specs.DBMaxConnLifetime,
			MaxConnIdleTime: specs.DBMaxConnIdleTime,
			TracingEnabled:  specs.TracingEnabled,
		},
		tracer, monitor, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create database client: %w", err)
	}
	defer dbClient.Close()

	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	verifier, err := authentication.NewAuthenticator(
		context.Background(),
		authentication.Config{
			Enabled: specs.AuthenticationEnabled,
			Issuer:  specs.AuthenticationIssuer,
			JWKSURL: specs.AuthenticationJwksURL,
			Policy: authentication.Policy{
				AllowedSubjects: specs.AuthenticationAllowedSubjects,
				RequiredScope:   specs.AuthenticationRequiredScope,
				UserClaim:       specs.AuthenticationUserClaim,
			},
		},
		tracer, monitor, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to set up authentication: %w", err)
	}

	mailer := mail.NewSMTPMailer(
		mail.Config{
			Host:     specs.SMTPHost,
			Port:     specs.SMTPPort,
			User:     specs.SMTPUser,
			Password: specs.SMTPPassword,
			From:     specs.SMTPFrom,
			Timeout:  specs.SMTPTimeout,
		},
		tracer, monitor, logger,
	)
	hasher := credentials.NewHasher(specs.BcryptCost)
	notifier := notifications.NewService(s, tracer, monitor, logger)

	invitationService := invitations.NewService(
		s,
		dbClient,
		domains.NewValidator(s, tracer, monitor, logger),
		notifier,
		mailer,
		hasher,
		invitations.Config{FrontendURL: specs.FrontendURL, Lifetime: specs.InvitationLifetime},
		tracer, monitor, logger,
	)

	router := web.NewRouter(
		web.Config{
			CORSAllowedOrigins: specs.CORSAllowedOrigins,
			AcceptRateLimit: web.RateLimitConfig{
				RequestsPerMinute: specs.AcceptRateLimit,
				Burst:             specs.AcceptRateBurst,
				TrustProxyHeaders: specs.TrustProxyHeaders,
			},
		},
		web.Dependencies{
			Storage:     s,
			DB:          dbClient,
			Verifier:    verifier,
			Hasher:      hasher,
			Invitations: invitationService,
			Notifier:    notifier,
		},
		tracer, monitor, logger,
	)

	if specs.HousekeepingInterval > 0 {
		housekeeper := invitations.NewHousekeeper(invitationService, specs.HousekeepingInterval, specs.HousekeepingRetention, tracer, logger)
		housekeeper.Start()
		defer housekeeper.Stop()
	}

	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout:      time.Second * 60,
		ReadTimeout:       time.Second * 15,
		ReadHeaderTimeout: time.Second * 5,
		IdleTimeout:       time.Second * 60,
		Handler:           router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
