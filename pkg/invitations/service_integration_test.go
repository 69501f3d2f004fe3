// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

//go:build integration

package invitations

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/migrations"
	"github.com/canonical/workspace-service/pkg/domains"
	"github.com/canonical/workspace-service/pkg/notifications"
)

func setupService(t *testing.T) (*Service, *storage.Storage) {
	t.Helper()

	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("workspace"),
		postgres.WithUsername("workspace"),
		postgres.WithPassword("workspace"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("failed to parse dsn: %v", err)
	}

	migrationDB := stdlib.OpenDB(*config)
	defer migrationDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, migrationDB, migrations.EmbedMigrations, goose.WithLogger(goose.NopLogger()))
	if err != nil {
		t.Fatalf("failed to create goose provider: %v", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("test")

	client, err := db.NewDBClient(db.Config{DSN: dsn, MaxConns: 20, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute}, tracer, monitor, logger)
	if err != nil {
		t.Fatalf("failed to create db client: %v", err)
	}
	t.Cleanup(client.Close)

	s := storage.NewStorage(client, tracer, monitor, logger)

	svc := NewService(
		s, client,
		domains.NewValidator(s, tracer, monitor, logger),
		notifications.NewService(s, tracer, monitor, logger),
		mail.NewNoopMailer(),
		credentials.NewHasher(bcrypt.MinCost),
		Config{FrontendURL: "https://app.example.com"},
		tracer, monitor, logger,
	)

	return svc, s
}

func TestAcceptInvitationConcurrently(t *testing.T) {
	svc, s := setupService(t)
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, &types.User{Email: "alice@acme.com", PasswordHash: "x", FirstName: "Alice", Active: true})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	org, err := s.CreateOrganization(ctx, &types.Organization{Name: "Acme", Domain: "acme.com", CreatedBy: owner.ID})
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	if _, err := s.AddMember(ctx, &types.Membership{OrganizationID: org.ID, UserID: owner.ID, Role: types.RoleOwner}); err != nil {
		t.Fatalf("failed to add owner: %v", err)
	}

	sent, err := svc.SendOrganizationInvitation(ctx, &SendRequest{
		Email:          "eve@acme.com",
		OrganizationID: org.ID,
		Role:           types.RoleMember,
		InviterID:      owner.ID,
	})
	if err != nil {
		t.Fatalf("failed to send invitation: %v", err)
	}

	const attempts = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*AcceptResult
		errs     []error
	)

	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			result, err := svc.AcceptInvitation(ctx, &AcceptRequest{
				Token:             sent.Token,
				TemporaryPassword: sent.TemporaryPassword,
				NewPassword:       "eve's new password",
				FirstName:         "Eve",
			})

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = append(errs, err)
				return
			}
			accepted = append(accepted, result)
		}()
	}

	close(start)
	wg.Wait()

	if len(accepted) != 1 {
		t.Fatalf("expected exactly one acceptance, got %d (errors: %v)", len(accepted), errs)
	}

	for _, err := range errs {
		if !validation.IsValidationError(err) || !strings.Contains(err.Error(), "already been used") {
			t.Errorf("expected an already used rejection, got %v", err)
		}
	}

	members, err := s.ListMembers(ctx, org.ID, 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := 0
	for _, m := range members {
		if m.UserID == accepted[0].UserID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one membership for the invitee, got %d", count)
	}

	invitation, err := s.GetInvitationByToken(ctx, sent.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !invitation.IsUsed {
		t.Error("expected the invitation to be marked used")
	}
}
