// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	invitationHTML = template.Must(template.New("invitation").Parse(invitationHTMLTemplate))

	messagePolicy = bluemonday.UGCPolicy()
	stripPolicy   = bluemonday.StrictPolicy()
)

type InvitationEmailData struct {
	To                string
	OrganizationName  string
	InviterName       string
	Role              string
	ProjectName       string
	Message           string
	Token             string
	TemporaryPassword string
	AcceptURL         string
	ExpiresIn         string
}

type invitationHTMLData struct {
	InvitationEmailData
	SafeMessage template.HTML
}

// BuildInvitationEmail renders the invitation with both HTML and text bodies.
// The inviter's message is sanitized before it reaches either body.
func BuildInvitationEmail(data InvitationEmailData) *Email {
	return &Email{
		To:       data.To,
		Subject:  fmt.Sprintf("You're invited to join %s", data.OrganizationName),
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
	}
}

func buildInvitationText(data InvitationEmailData) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s has invited you to join %s as %s.\n\n", data.InviterName, data.OrganizationName, data.Role)

	if data.ProjectName != "" {
		fmt.Fprintf(&buf, "You will have access to the project %s.\n\n", data.ProjectName)
	}

	if msg := strings.TrimSpace(stripPolicy.Sanitize(data.Message)); msg != "" {
		fmt.Fprintf(&buf, "Message from %s:\n%s\n\n", data.InviterName, msg)
	}

	buf.WriteString("Your invitation details:\n")
	fmt.Fprintf(&buf, "  Invitation token: %s\n", data.Token)
	fmt.Fprintf(&buf, "  Temporary password: %s\n\n", data.TemporaryPassword)
	buf.WriteString("Accept the invitation here:\n")
	buf.WriteString(data.AcceptURL + "\n\n")
	fmt.Fprintf(&buf, "This invitation expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")

	return buf.String()
}

func buildInvitationHTML(data InvitationEmailData) string {
	var buf bytes.Buffer

	d := invitationHTMLData{
		InvitationEmailData: data,
		SafeMessage:         template.HTML(messagePolicy.Sanitize(data.Message)), // #nosec G203 - sanitized by bluemonday
	}

	if err := invitationHTML.Execute(&buf, d); err != nil {
		return ""
	}

	return buf.String()
}

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #1f2937;">Join {{.OrganizationName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                <strong>{{.InviterName}}</strong> has invited you to join <strong>{{.OrganizationName}}</strong> as <strong>{{.Role}}</strong>.
              </p>
              {{- if .ProjectName}}
              <p style="margin: 0 0 16px; font-size: 15px; color: #374151;">You will have access to the project <strong>{{.ProjectName}}</strong>.</p>
              {{- end}}
              {{- if .SafeMessage}}
              <blockquote style="margin: 0 0 16px; padding: 12px 16px; border-left: 4px solid #e5e7eb; color: #4b5563;">{{.SafeMessage}}</blockquote>
              {{- end}}
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 16px; margin-bottom: 24px; font-family: 'Courier New', monospace; font-size: 14px; color: #1f2937;">
                <div>Invitation token: {{.Token}}</div>
                <div>Temporary password: {{.TemporaryPassword}}</div>
              </div>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.AcceptURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">Accept invitation</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">This invitation expires in {{.ExpiresIn}}.</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">If you were not expecting this invitation, you can safely ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
