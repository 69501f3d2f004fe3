// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

func newTestMailer(cfg Config) *SMTPMailer {
	return NewSMTPMailer(cfg, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
}

func render(t *testing.T, msg *gomail.Msg) string {
	t.Helper()

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("failed to render message: %v", err)
	}

	return buf.String()
}

func headerLine(raw, name string) string {
	for _, line := range strings.Split(raw, "\r\n") {
		if strings.HasPrefix(line, name+": ") {
			return line
		}
	}
	return ""
}

func TestSendWithoutCredentials(t *testing.T) {
	m := newTestMailer(Config{Host: "smtp.example.com", Port: 587})
	m.deliver = func(context.Context, *gomail.Msg) error {
		t.Fatal("transport must not be used without credentials")
		return nil
	}

	sent, err := m.Send(context.Background(), &Email{To: "bob@acme.com", Subject: "hi", TextBody: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent {
		t.Error("expected sent to be false")
	}
}

func TestSendDelivers(t *testing.T) {
	var (
		raw         string
		hasDeadline bool
	)

	m := newTestMailer(Config{Host: "smtp.example.com", Port: 2525, User: "u", Password: "p", From: "noreply@acme.com"})
	m.deliver = func(ctx context.Context, msg *gomail.Msg) error {
		_, hasDeadline = ctx.Deadline()
		raw = render(t, msg)
		return nil
	}

	sent, err := m.Send(context.Background(), &Email{To: "bob@acme.com", Subject: "Join\r\nBcc: x", TextBody: "plain", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sent {
		t.Fatal("expected sent to be true")
	}

	if !hasDeadline {
		t.Error("expected delivery to be bounded by a deadline")
	}
	if !strings.Contains(headerLine(raw, "To"), "bob@acme.com") {
		t.Errorf("unexpected recipient header in %q", raw)
	}
	if strings.Contains(raw, "\r\nBcc: x") {
		t.Errorf("expected the subject not to inject headers, got %q", raw)
	}
	if !strings.Contains(raw, "multipart/alternative") || !strings.Contains(raw, "text/html") || !strings.Contains(raw, "text/plain") {
		t.Errorf("expected a multipart alternative message, got %q", raw)
	}
}

func TestComposeEncodesNonASCIISubject(t *testing.T) {
	m := newTestMailer(Config{From: "noreply@acme.com"})

	email := BuildInvitationEmail(InvitationEmailData{
		To:               "bob@acme.com",
		OrganizationName: "Café Zürich",
		InviterName:      "Alice",
		Role:             "member",
		AcceptURL:        "https://app.example.com/accept-invitation?token=t",
		ExpiresIn:        "7 days",
	})

	msg, err := m.compose(email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subject := headerLine(render(t, msg), "Subject")
	if subject == "" {
		t.Fatal("expected a subject header")
	}
	if !strings.Contains(strings.ToUpper(subject), "=?UTF-8?") {
		t.Errorf("expected an RFC 2047 encoded subject, got %q", subject)
	}
	if strings.ContainsAny(subject, "éü") {
		t.Errorf("expected no raw non-ASCII bytes in the subject, got %q", subject)
	}
}

func TestComposeRejectsInvalidRecipient(t *testing.T) {
	m := newTestMailer(Config{From: "noreply@acme.com"})

	if _, err := m.compose(&Email{To: "not an address", Subject: "hi", TextBody: "hello"}); err == nil {
		t.Error("expected an invalid recipient to be rejected")
	}
}

func TestSendTransportFailure(t *testing.T) {
	m := newTestMailer(Config{Host: "smtp.example.com", Port: 587, User: "u", Password: "p", From: "noreply@acme.com"})
	m.deliver = func(context.Context, *gomail.Msg) error {
		return errors.New("connection refused")
	}

	sent, err := m.Send(context.Background(), &Email{To: "bob@acme.com", Subject: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if sent {
		t.Error("expected sent to be false")
	}
}

func TestSendStalledServer(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		ctx     func() (context.Context, context.CancelFunc)
	}{
		{
			name:    "configured timeout",
			timeout: 300 * time.Millisecond,
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
		},
		{
			name:    "caller deadline",
			timeout: time.Minute,
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), 300*time.Millisecond) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("failed to listen: %v", err)
			}
			defer ln.Close()

			// accept and never greet
			conns := make(chan net.Conn, 1)
			go func() {
				if conn, err := ln.Accept(); err == nil {
					conns <- conn
				}
			}()
			defer func() {
				select {
				case conn := <-conns:
					conn.Close()
				default:
				}
			}()

			m := newTestMailer(Config{
				Host:     "127.0.0.1",
				Port:     ln.Addr().(*net.TCPAddr).Port,
				User:     "u",
				Password: "p",
				From:     "noreply@acme.com",
				Timeout:  tt.timeout,
			})

			ctx, cancel := tt.ctx()
			defer cancel()

			start := time.Now()
			sent, err := m.Send(ctx, &Email{To: "bob@acme.com", Subject: "hi", TextBody: "hello"})

			if err == nil {
				t.Fatal("expected a stalled server to fail the delivery")
			}
			if sent {
				t.Error("expected sent to be false")
			}
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Errorf("expected delivery to give up near its deadline, took %s", elapsed)
			}
		})
	}
}

func TestNewSMTPMailerDefaultTimeout(t *testing.T) {
	if m := newTestMailer(Config{}); m.cfg.Timeout != DefaultTimeout {
		t.Errorf("expected %s, got %s", DefaultTimeout, m.cfg.Timeout)
	}
}

func TestNoopMailer(t *testing.T) {
	sent, err := NewNoopMailer().Send(context.Background(), &Email{})
	if sent || err != nil {
		t.Errorf("expected (false, nil), got (%v, %v)", sent, err)
	}
}
