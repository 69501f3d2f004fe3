// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	tx      TxManagerInterface
	hasher  HasherInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Register creates an active, unverified account and a personal
// organization owned by it. Nothing is persisted if any step fails.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Registration, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, validation.New("Email is required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	reg := new(Registration)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.storage.CreateUser(ctx, &types.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
			Active:       true,
		})
		if errors.Is(err, storage.ErrDuplicateKey) {
			return validation.New("An account with this email already exists")
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		org, err := s.storage.CreateOrganization(ctx, &types.Organization{
			Name:           personalOrganizationName(firstName, email),
			AllowedDomains: []string{},
			CreatedBy:      user.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		_, err = s.storage.AddMember(ctx, &types.Membership{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           types.RoleOwner,
		})
		if err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}

		reg.User = user
		reg.Organization = org
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("registered user %s with organization %s", reg.User.ID, reg.Organization.ID)

	return reg, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.GetUser")
	defer span.End()

	return s.storage.GetUserByID(ctx, id)
}

// personalOrganizationName uses the local part of the email when no first
// name was given.
func personalOrganizationName(firstName, email string) string {
	if firstName == "" {
		firstName, _, _ = strings.Cut(email, "@")
	}

	return fmt.Sprintf("%s's Organization", firstName)
}

func NewService(
	storage StorageInterface,
	tx TxManagerInterface,
	hasher HasherInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tx:      tx,
		hasher:  hasher,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
