// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package validation

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "validation error", err: New("already a member"), expected: true},
		{name: "wrapped validation error", err: fmt.Errorf("invite: %w", Newf("domain %q not allowed", "x.com")), expected: true},
		{name: "plain error", err: errors.New("db down"), expected: false},
		{name: "nil", err: nil, expected: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsValidationError(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Newf("Email domain '%s' is not allowed", "partner.com")

	if err.Error() != "Email domain 'partner.com' is not allowed" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
