// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"slices"
	"testing"
)

func TestPolicy_Permits(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		subject  string
		scopes   []string
		expected bool
	}{
		{name: "empty policy admits everyone", policy: Policy{}, subject: "anyone", expected: true},
		{name: "allowed subject", policy: Policy{AllowedSubjects: []string{"svc-a"}}, subject: "svc-a", expected: true},
		{name: "unknown subject", policy: Policy{AllowedSubjects: []string{"svc-a"}}, subject: "svc-b", expected: false},
		{name: "required scope present", policy: Policy{RequiredScope: "workspace"}, subject: "u1", scopes: []string{"openid", "workspace"}, expected: true},
		{name: "required scope missing", policy: Policy{RequiredScope: "workspace"}, subject: "u1", scopes: []string{"openid"}, expected: false},
		{name: "scope admits subject outside the allow list", policy: Policy{AllowedSubjects: []string{"svc-a"}, RequiredScope: "workspace"}, subject: "u1", scopes: []string{"workspace"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.permits(tt.subject, tt.scopes); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestScopes(t *testing.T) {
	claims := map[string]interface{}{
		"scope": "openid  profile",
		"scp":   []interface{}{"workspace", 42},
	}

	got := scopes(claims)
	expected := []string{"openid", "profile", "workspace"}

	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}

	if got := scopes(map[string]interface{}{}); len(got) != 0 {
		t.Errorf("expected no scopes, got %v", got)
	}
}

func TestPolicy_UserID(t *testing.T) {
	claims := map[string]interface{}{
		"sub":     "subject-1",
		"user_id": "user-1",
		"number":  7,
	}

	tests := []struct {
		name     string
		claim    string
		expected string
	}{
		{name: "defaults to subject", claim: "", expected: "subject-1"},
		{name: "custom claim", claim: "user_id", expected: "user-1"},
		{name: "non string claim", claim: "number", expected: ""},
		{name: "absent claim", claim: "email", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Policy{UserClaim: tt.claim}).userID(claims); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
