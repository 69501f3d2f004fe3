// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
)

// MailerInterface reports true only when a message was actually handed to a
// transport. A false result with a nil error means no transport is configured.
type MailerInterface interface {
	Send(context.Context, *Email) (bool, error)
}
