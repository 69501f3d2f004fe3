// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

const (
	outcomeSent    = "sent"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// DefaultTimeout bounds one delivery, from dial to QUIT.
const DefaultTimeout = 10 * time.Second

type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// configured is false when no credentials are set.
func (c Config) configured() bool {
	return c.User != "" && c.Password != ""
}

var _ MailerInterface = (*SMTPMailer)(nil)

type SMTPMailer struct {
	cfg Config

	// deliver is swapped in tests
	deliver func(context.Context, *gomail.Msg) error

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Send delivers email within cfg.Timeout or the deadline of ctx, whichever
// comes first.
func (m *SMTPMailer) Send(ctx context.Context, email *Email) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "mail.SMTPMailer.Send")
	defer span.End()

	if !m.cfg.configured() {
		m.logger.Infof("no SMTP credentials configured, skipping email to %s with subject %q", email.To, email.Subject)
		m.count(outcomeSkipped)
		return false, nil
	}

	msg, err := m.compose(email)
	if err != nil {
		m.count(outcomeFailed)
		return false, fmt.Errorf("failed to compose email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := m.deliver(ctx, msg); err != nil {
		m.count(outcomeFailed)
		return false, fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}

	m.count(outcomeSent)
	return true, nil
}

func (m *SMTPMailer) count(outcome string) {
	if err := m.monitor.IncrementEmailMetric(map[string]string{"outcome": outcome}); err != nil {
		m.logger.Debugf("failed to record email metric: %v", err)
	}
}

// compose builds a multipart/alternative message when both bodies are set.
// Headers are RFC 2047 encoded by go-mail.
func (m *SMTPMailer) compose(email *Email) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", email.To, err)
	}

	msg.Subject(email.Subject)

	switch {
	case email.TextBody != "" && email.HTMLBody != "":
		msg.SetBodyString(gomail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(gomail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(gomail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(gomail.TypeTextPlain, email.TextBody)
	}

	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTimeout(m.cfg.Timeout),
		gomail.WithDialContextFunc(dialWithDeadline),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

// dialWithDeadline carries the deadline of ctx onto the connection so a server
// that accepts and then stalls cannot block past it.
func dialWithDeadline(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := new(net.Dialer).DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

func NewSMTPMailer(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SMTPMailer {
	m := new(SMTPMailer)

	m.cfg = cfg
	if m.cfg.Timeout <= 0 {
		m.cfg.Timeout = DefaultTimeout
	}
	m.deliver = m.dialAndSend

	m.tracer = tracer
	m.monitor = monitor
	m.logger = logger

	return m
}

var _ MailerInterface = (*NoopMailer)(nil)

// NoopMailer never delivers anything.
type NoopMailer struct{}

func (NoopMailer) Send(context.Context, *Email) (bool, error) {
	return false, nil
}

func NewNoopMailer() *NoopMailer {
	return new(NoopMailer)
}
