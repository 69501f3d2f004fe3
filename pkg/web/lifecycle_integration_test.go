// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

//go:build integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/canonical/workspace-service/migrations"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/domains"
	"github.com/canonical/workspace-service/pkg/invitations"
	"github.com/canonical/workspace-service/pkg/notifications"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []*mail.Email
}

func (m *capturingMailer) Send(_ context.Context, email *mail.Email) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, email)
	return true, nil
}

type testServer struct {
	*httptest.Server
	mailer *capturingMailer
}

func setupServer(t *testing.T) *testServer {
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

	client, err := db.NewDBClient(db.Config{DSN: dsn, MaxConns: 10, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute}, tracer, monitor, logger)
	if err != nil {
		t.Fatalf("failed to create db client: %v", err)
	}
	t.Cleanup(client.Close)

	s := storage.NewStorage(client, tracer, monitor, logger)
	hasher := credentials.NewHasher(bcrypt.MinCost)
	notifier := notifications.NewService(s, tracer, monitor, logger)
	mailer := new(capturingMailer)

	invitationService := invitations.NewService(
		s, client,
		domains.NewValidator(s, tracer, monitor, logger),
		notifier, mailer, hasher,
		invitations.Config{FrontendURL: "https://app.example.com"},
		tracer, monitor, logger,
	)

	router := NewRouter(
		Config{AcceptRateLimit: RateLimitConfig{RequestsPerMinute: 600, Burst: 100}},
		Dependencies{
			Storage:     s,
			DB:          client,
			Verifier:    authentication.NewNoopVerifier(),
			Hasher:      hasher,
			Invitations: invitationService,
			Notifier:    notifier,
		},
		tracer, monitor, logger,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, mailer: mailer}
}

// call issues a request as userID (anonymous when empty) and decodes the
// envelope's data into out when given.
func (ts *testServer) call(t *testing.T, method, path, userID string, body interface{}, out interface{}) int {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, ts.URL+APIPrefix+path, &payload)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		envelope := struct {
			Data interface{} `json:"data"`
		}{Data: out}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}

	return resp.StatusCode
}

func TestInvitationLifecycle(t *testing.T) {
	ts := setupServer(t)

	var owner struct {
		User         struct{ ID string } `json:"user"`
		Organization struct{ ID string } `json:"organization"`
	}
	if code := ts.call(t, http.MethodPost, "/users", "", map[string]string{
		"email": "olivia@acme.com", "password": "owner password 1", "first_name": "Olivia",
	}, &owner); code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", code)
	}

	ownerID := owner.User.ID
	orgPath := "/organizations/" + owner.Organization.ID

	if code := ts.call(t, http.MethodPut, orgPath+"/settings", ownerID, map[string]interface{}{
		"require_domain_match": true, "allowed_invitation_domains": []string{"ACME.com"},
	}, nil); code != http.StatusOK {
		t.Fatalf("settings: expected 200, got %d", code)
	}

	if code := ts.call(t, http.MethodPost, orgPath+"/invitations", ownerID, map[string]string{
		"email": "eve@other.org", "role": "member",
	}, nil); code != http.StatusBadRequest {
		t.Fatalf("foreign domain: expected 400, got %d", code)
	}

	var sent invitations.SendResult
	if code := ts.call(t, http.MethodPost, orgPath+"/invitations", ownerID, map[string]string{
		"email": "Eve@Acme.com", "role": "member",
	}, &sent); code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", code)
	}
	if !sent.EmailSent || len(ts.mailer.sent) != 1 || ts.mailer.sent[0].To != "eve@acme.com" {
		t.Fatalf("expected one email to eve@acme.com, got %+v", ts.mailer.sent)
	}

	var pending []map[string]interface{}
	ts.call(t, http.MethodGet, orgPath+"/invitations", ownerID, nil, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected one pending invitation, got %d", len(pending))
	}

	accept := map[string]string{
		"token":              sent.Token,
		"temporary_password": sent.TemporaryPassword,
		"new_password":       "eve's new password",
		"first_name":         "Eve",
	}

	var accepted invitations.AcceptResult
	if code := ts.call(t, http.MethodPost, "/invitations/accept", "", accept, &accepted); code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", code)
	}
	if accepted.OrganizationID != owner.Organization.ID || accepted.Role != "member" {
		t.Errorf("unexpected acceptance %+v", accepted)
	}

	if code := ts.call(t, http.MethodPost, "/invitations/accept", "", accept, nil); code != http.StatusBadRequest {
		t.Errorf("second accept: expected 400, got %d", code)
	}

	var members []map[string]interface{}
	if code := ts.call(t, http.MethodGet, orgPath+"/members", accepted.UserID, nil, &members); code != http.StatusOK {
		t.Fatalf("members: expected 200, got %d", code)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}

	if code := ts.call(t, http.MethodGet, orgPath+"/invitations", accepted.UserID, nil, nil); code != http.StatusForbidden {
		t.Errorf("member listing invitations: expected 403, got %d", code)
	}

	var stats struct {
		Unread int64 `json:"unread"`
	}
	ts.call(t, http.MethodGet, "/notifications/stats", ownerID, nil, &stats)
	if stats.Unread < 1 {
		t.Errorf("expected the inviter to be notified, got %+v", stats)
	}

	if code := ts.call(t, http.MethodDelete, orgPath+"/members/"+ownerID, ownerID, nil, nil); code != http.StatusBadRequest {
		t.Errorf("removing the owner: expected 400, got %d", code)
	}
}
