// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import "context"

type TokenVerifierInterface interface {
	// VerifyToken checks a raw bearer token and returns the workspace user ID
	// it identifies.
	VerifyToken(ctx context.Context, rawToken string) (string, error)
}
