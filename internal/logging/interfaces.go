// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Sync() error
	Security() SecurityLoggerInterface
}

// SecurityLoggerInterface records audit events for the invitation and
// membership workflows.
type SecurityLoggerInterface interface {
	SystemStartup()
	SystemShutdown()
	InvitationIssued(organizationID, inviterID, email, role string)
	InvitationAccepted(organizationID, userID, role string)
	InvitationCancelled(invitationID, userID string)
	AuthorizationFailure(organizationID, userID, requiredRole string)
}
