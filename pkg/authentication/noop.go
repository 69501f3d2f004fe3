// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
)

type NoopVerifier struct{}

// NewNoopVerifier returns a verifier for local development that accepts the
// raw token as the user ID. It must not be used when AUTHENTICATION_ENABLED is set.
func NewNoopVerifier() *NoopVerifier {
	return &NoopVerifier{}
}

func (n *NoopVerifier) VerifyToken(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", fmt.Errorf("empty token")
	}
	return rawToken, nil
}
