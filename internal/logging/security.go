// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

const (
	eventSystemStartup        = "sys_startup"
	eventSystemShutdown       = "sys_shutdown"
	eventInvitationIssued     = "invitation_issued"
	eventInvitationAccepted   = "invitation_accepted"
	eventInvitationCancelled  = "invitation_cancelled"
	eventAuthorizationFailure = "authz_fail"
)

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system started", zap.String("event", eventSystemStartup))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutting down", zap.String("event", eventSystemShutdown))
}

func (s *SecurityLogger) InvitationIssued(organizationID, inviterID, email, role string) {
	s.l.Info(
		"invitation issued",
		zap.String("event", eventInvitationIssued),
		zap.String("organization_id", organizationID),
		zap.String("inviter_id", inviterID),
		zap.String("email", email),
		zap.String("role", role),
	)
}

func (s *SecurityLogger) InvitationAccepted(organizationID, userID, role string) {
	s.l.Info(
		"invitation accepted",
		zap.String("event", eventInvitationAccepted),
		zap.String("organization_id", organizationID),
		zap.String("user_id", userID),
		zap.String("role", role),
	)
}

func (s *SecurityLogger) InvitationCancelled(invitationID, userID string) {
	s.l.Info(
		"invitation cancelled",
		zap.String("event", eventInvitationCancelled),
		zap.String("invitation_id", invitationID),
		zap.String("user_id", userID),
	)
}

func (s *SecurityLogger) AuthorizationFailure(organizationID, userID, requiredRole string) {
	s.l.Warn(
		"authorization failure",
		zap.String("event", eventAuthorizationFailure),
		zap.String("organization_id", organizationID),
		zap.String("user_id", userID),
		zap.String("required_role", requiredRole),
	)
}

func NewSecurityLogger(core zapcore.Core, lvl zapcore.Level) *SecurityLogger {
	s := new(SecurityLogger)
	s.l = zap.New(core).With(zap.String("type", "security"), zap.Stringer("app_level", lvl))

	return s
}
