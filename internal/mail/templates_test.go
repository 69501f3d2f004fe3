// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"strings"
	"testing"
)

func TestBuildInvitationEmail(t *testing.T) {
	data := InvitationEmailData{
		To:                "bob@acme.com",
		OrganizationName:  "Acme",
		InviterName:       "Alice Smith",
		Role:              "member",
		ProjectName:       "Roadmap",
		Message:           "Welcome aboard! <script>alert('x')</script>",
		Token:             "tok123",
		TemporaryPassword: "Tmp!Pass1234",
		AcceptURL:         "http://localhost:3000/accept-invitation?token=tok123",
		ExpiresIn:         "7 days",
	}

	email := BuildInvitationEmail(data)

	if email.To != "bob@acme.com" {
		t.Errorf("unexpected recipient %s", email.To)
	}
	if email.Subject != "You're invited to join Acme" {
		t.Errorf("unexpected subject %q", email.Subject)
	}

	for _, body := range []string{email.TextBody, email.HTMLBody} {
		for _, want := range []string{"Alice Smith", "Acme", "member", "Roadmap", "tok123", "Tmp!Pass1234", "7 days", "Welcome aboard!"} {
			if !strings.Contains(body, want) {
				t.Errorf("expected body to contain %q", want)
			}
		}
		if strings.Contains(body, "<script>") {
			t.Error("expected script to be stripped from body")
		}
	}

	if !strings.Contains(email.TextBody, data.AcceptURL) {
		t.Error("expected text body to contain the acceptance url")
	}
	if !strings.Contains(email.HTMLBody, `href="http://localhost:3000/accept-invitation?token=tok123"`) {
		t.Error("expected html body to link the acceptance url")
	}
}

func TestBuildInvitationEmailWithoutOptionalFields(t *testing.T) {
	email := BuildInvitationEmail(InvitationEmailData{OrganizationName: "Acme", InviterName: "Alice", Role: "viewer"})

	if strings.Contains(email.TextBody, "project") {
		t.Error("expected no project line")
	}
	if strings.Contains(email.TextBody, "Message from") {
		t.Error("expected no message block")
	}
	if strings.Contains(email.HTMLBody, "<blockquote") {
		t.Error("expected no blockquote")
	}
}
