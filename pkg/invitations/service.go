// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

const (
	DefaultLifetime = 7 * 24 * time.Hour

	outcomeIssued    = "issued"
	outcomeAccepted  = "accepted"
	outcomeCancelled = "cancelled"
	outcomeRejected  = "rejected"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage   StorageInterface
	tx        TxManagerInterface
	validator DomainValidatorInterface
	notifier  NotifierInterface
	mailer    MailerInterface
	hasher    HasherInterface

	frontendURL string
	lifetime    time.Duration

	now              func() time.Time
	generateToken    func() (string, error)
	generatePassword func() (string, error)

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// SendOrganizationInvitation records a single-use invitation for email and
// dispatches it. Email and notification delivery are best-effort and never
// undo the invitation.
func (s *Service) SendOrganizationInvitation(ctx context.Context, req *SendRequest) (*SendResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitations.Service.SendOrganizationInvitation")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !req.Role.Valid() {
		return nil, validation.Newf("Invalid role '%s'", req.Role)
	}

	if err := s.validator.Validate(ctx, email, req.OrganizationID); err != nil {
		if validation.IsValidationError(err) {
			s.count(outcomeRejected)
		}
		return nil, err
	}

	org, err := s.storage.GetOrganizationByID(ctx, req.OrganizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, validation.New("Organization not found")
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	existing, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}

	if existing != nil {
		_, err := s.storage.GetMembership(ctx, req.OrganizationID, existing.ID)
		if err == nil {
			s.count(outcomeRejected)
			return nil, validation.New("User is already a member of this organization")
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
	}

	var project *types.Project
	if req.ProjectID != "" {
		project, err = s.storage.GetProjectByID(ctx, req.ProjectID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && project.OrganizationID != req.OrganizationID) {
			return nil, validation.New("Project not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
	}

	token, err := s.generateToken()
	if err != nil {
		return nil, err
	}

	tempPassword, err := s.generatePassword()
	if err != nil {
		return nil, err
	}

	tempHash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, err
	}

	invitation, err := s.storage.CreateInvitation(ctx, &types.Invitation{
		Token:          token,
		Email:          email,
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		InvitedRole:    req.Role,
		TempPassword:   tempHash,
		InvitedBy:      req.InviterID,
		Message:        req.Message,
		ExpiresAt:      s.now().Add(s.lifetime),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.logger.Security().InvitationIssued(req.OrganizationID, req.InviterID, email, string(req.Role))
	s.count(outcomeIssued)

	inviterName := "A team member"
	if inviter, err := s.storage.GetUserByID(ctx, req.InviterID); err != nil {
		s.logger.Warnf("failed to load inviter %s: %v", req.InviterID, err)
	} else {
		inviterName = inviter.DisplayName()
	}

	projectName := ""
	if project != nil {
		projectName = project.Name
	}

	emailSent, err := s.mailer.Send(ctx, mail.BuildInvitationEmail(mail.InvitationEmailData{
		To:                email,
		OrganizationName:  org.Name,
		InviterName:       inviterName,
		Role:              string(req.Role),
		ProjectName:       projectName,
		Message:           req.Message,
		Token:             token,
		TemporaryPassword: tempPassword,
		AcceptURL:         s.acceptURL(token),
		ExpiresIn:         humanizeDuration(s.lifetime),
	}))
	if err != nil {
		s.logger.Errorf("failed to send invitation email for invitation %s: %v", invitation.ID, err)
		emailSent = false
	}

	if existing != nil {
		metadata := map[string]interface{}{
			"invitation_id":     invitation.ID,
			"organization_name": org.Name,
			"inviter_name":      inviterName,
			"role":              string(req.Role),
			"project_name":      nil,
		}
		if project != nil {
			metadata["project_name"] = project.Name
		}

		s.notify(ctx, &types.Notification{
			UserID:         existing.ID,
			OrganizationID: req.OrganizationID,
			Title:          fmt.Sprintf("Project Invitation from %s", org.Name),
			Message:        fmt.Sprintf("You've been invited to join %s as a %s. Check your email for details.", org.Name, req.Role),
			Type:           types.NotificationTeamInvite,
			Priority:       types.PriorityNormal,
			ActionURL:      "/accept-invitation?token=" + url.QueryEscape(token),
			Metadata:       metadata,
		})
	}

	return &SendResult{
		InvitationID:      invitation.ID,
		Token:             token,
		TemporaryPassword: tempPassword,
		EmailSent:         emailSent,
		ExpiresAt:         invitation.ExpiresAt,
	}, nil
}

// AcceptInvitation consumes the token at most once. The user, membership and
// used flag are written in one transaction. Notifications follow the commit.
func (s *Service) AcceptInvitation(ctx context.Context, req *AcceptRequest) (*AcceptResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitations.Service.AcceptInvitation")
	defer span.End()

	if req.NewPassword == "" {
		return nil, validation.New("New password is required")
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}

	var (
		invitation *types.Invitation
		user       *types.User
	)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		invitation, err = s.storage.GetInvitationByTokenForUpdate(ctx, req.Token)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return validation.New("Invalid or expired invitation token")
			}
			return fmt.Errorf("failed to get invitation: %w", err)
		}

		if invitation.IsUsed {
			return validation.New("Invitation has already been used")
		}

		if invitation.Expired(s.now()) {
			return validation.New("Invitation has expired")
		}

		if !s.hasher.Verify(req.TemporaryPassword, invitation.TempPassword) {
			return validation.New("Invalid temporary password")
		}

		user, err = s.storage.GetUserByEmail(ctx, invitation.Email)
		switch {
		case err == nil:
			if err := s.storage.UpdateUserPassword(ctx, user.ID, newHash); err != nil {
				return fmt.Errorf("failed to update user password: %w", err)
			}
		case errors.Is(err, storage.ErrNotFound):
			user, err = s.storage.CreateUser(ctx, &types.User{
				Email:         invitation.Email,
				PasswordHash:  newHash,
				FirstName:     req.FirstName,
				LastName:      req.LastName,
				EmailVerified: true,
				Active:        true,
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up user: %w", err)
		}

		_, err = s.storage.GetMembership(ctx, invitation.OrganizationID, user.ID)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrNotFound):
			_, err := s.storage.AddMember(ctx, &types.Membership{
				OrganizationID: invitation.OrganizationID,
				UserID:         user.ID,
				Role:           invitation.InvitedRole,
				InvitedBy:      invitation.InvitedBy,
			})
			if err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		default:
			return fmt.Errorf("failed to check membership: %w", err)
		}

		if err := s.storage.MarkInvitationUsed(ctx, invitation.ID, s.now()); err != nil {
			if errors.Is(err, storage.ErrAlreadyUsed) {
				return validation.New("Invitation has already been used")
			}
			return err
		}

		return nil
	})
	if err != nil {
		if validation.IsValidationError(err) {
			s.count(outcomeRejected)
		}
		return nil, err
	}

	s.logger.Security().InvitationAccepted(invitation.OrganizationID, user.ID, string(invitation.InvitedRole))
	s.count(outcomeAccepted)

	s.notifyAccepted(ctx, invitation, user)

	return &AcceptResult{
		UserID:         user.ID,
		OrganizationID: invitation.OrganizationID,
		Role:           invitation.InvitedRole,
		ProjectID:      invitation.ProjectID,
	}, nil
}

func (s *Service) notifyAccepted(ctx context.Context, invitation *types.Invitation, user *types.User) {
	orgName := "your organization"
	if org, err := s.storage.GetOrganizationByID(ctx, invitation.OrganizationID); err != nil {
		s.logger.Warnf("failed to load organization %s: %v", invitation.OrganizationID, err)
	} else {
		orgName = org.Name
	}

	var projectID interface{}
	if invitation.ProjectID != "" {
		projectID = invitation.ProjectID
	}

	s.notify(ctx, &types.Notification{
		UserID:         user.ID,
		OrganizationID: invitation.OrganizationID,
		Title:          fmt.Sprintf("Welcome to %s!", orgName),
		Message:        fmt.Sprintf("You've successfully joined %s as a %s. Start exploring your new workspace!", orgName, invitation.InvitedRole),
		Type:           types.NotificationTeamInviteAccepted,
		Priority:       types.PriorityNormal,
		ActionURL:      "/dashboard",
		Metadata: map[string]interface{}{
			"organization_name": orgName,
			"role":              string(invitation.InvitedRole),
			"project_id":        projectID,
		},
	})

	memberName := strings.TrimSpace(user.FirstName + " " + user.LastName)

	s.notify(ctx, &types.Notification{
		UserID:         invitation.InvitedBy,
		OrganizationID: invitation.OrganizationID,
		Title:          "Invitation Accepted",
		Message:        fmt.Sprintf("%s (%s) has joined %s", memberName, invitation.Email, orgName),
		Type:           types.NotificationTeamInviteAccepted,
		Priority:       types.PriorityNormal,
		ActionURL:      "/team-members",
		Metadata: map[string]interface{}{
			"new_member_name":   memberName,
			"new_member_email":  invitation.Email,
			"role":              string(invitation.InvitedRole),
			"organization_name": orgName,
		},
	})
}

// GetPendingInvitations lists unused, unexpired invitations, newest first.
func (s *Service) GetPendingInvitations(ctx context.Context, organizationID string) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitations.Service.GetPendingInvitations")
	defer span.End()

	invitations, err := s.storage.ListPendingInvitations(ctx, organizationID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}

	return invitations, nil
}

// CancelInvitation deletes a pending invitation of organizationID issued by
// userID. False means nothing matched: unknown, already accepted, issued by
// someone else or belonging to another organization.
func (s *Service) CancelInvitation(ctx context.Context, organizationID, invitationID, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "invitations.Service.CancelInvitation")
	defer span.End()

	cancelled, err := s.storage.DeletePendingInvitation(ctx, organizationID, invitationID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel invitation: %w", err)
	}

	if cancelled {
		s.logger.Security().InvitationCancelled(invitationID, userID)
		s.count(outcomeCancelled)
	}

	return cancelled, nil
}

// PurgeInvitations removes invitations that were used or expired more than
// retention ago.
func (s *Service) PurgeInvitations(ctx context.Context, retention time.Duration) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "invitations.Service.PurgeInvitations")
	defer span.End()

	purged, err := s.storage.PurgeInvitations(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge invitations: %w", err)
	}

	return purged, nil
}

func (s *Service) notify(ctx context.Context, n *types.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Errorf("failed to create %s notification for user %s: %v", n.Type, n.UserID, err)
	}
}

func (s *Service) count(outcome string) {
	if err := s.monitor.IncrementInvitationMetric(map[string]string{"outcome": outcome}); err != nil {
		s.logger.Debugf("failed to record invitation metric: %v", err)
	}
}

func (s *Service) acceptURL(token string) string {
	return fmt.Sprintf("%s/accept-invitation?token=%s", strings.TrimRight(s.frontendURL, "/"), url.QueryEscape(token))
}

func humanizeDuration(d time.Duration) string {
	switch days := int(d / (24 * time.Hour)); {
	case days == 1:
		return "1 day"
	case days > 1:
		return fmt.Sprintf("%d days", days)
	}

	if hours := int(d / time.Hour); hours == 1 {
		return "1 hour"
	} else if hours > 1 {
		return fmt.Sprintf("%d hours", hours)
	}

	return d.String()
}

func NewService(
	storage StorageInterface,
	tx TxManagerInterface,
	validator DomainValidatorInterface,
	notifier NotifierInterface,
	mailer MailerInterface,
	hasher HasherInterface,
	cfg Config,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	s := new(Service)

	s.storage = storage
	s.tx = tx
	s.validator = validator
	s.notifier = notifier
	s.mailer = mailer
	s.hasher = hasher

	s.frontendURL = cfg.FrontendURL
	s.lifetime = cfg.Lifetime
	if s.lifetime <= 0 {
		s.lifetime = DefaultLifetime
	}

	s.now = time.Now
	s.generateToken = func() (string, error) { return credentials.GenerateToken(credentials.InvitationTokenSize) }
	s.generatePassword = credentials.GenerateTemporaryPassword

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
