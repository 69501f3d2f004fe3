// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package domains decides whether an email address may be invited into an
// organization based on the organization's domain configuration.
package domains

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
)

var _ ValidatorInterface = (*Validator)(nil)

type Validator struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Validate passes when the organization has no settings, when domain matching
// is off, or when no domain is configured anywhere. Otherwise the email domain
// must be in the union of the organization's domain, its allowed domains and
// the settings' allowed invitation domains.
func (v *Validator) Validate(ctx context.Context, email, organizationID string) error {
	ctx, span := v.tracer.Start(ctx, "domains.Validator.Validate")
	defer span.End()

	domain, err := EmailDomain(email)
	if err != nil {
		return err
	}

	settings, err := v.storage.GetOrganizationSettings(ctx, organizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load organization settings: %w", err)
	}

	if !settings.RequireDomainMatch {
		return nil
	}

	org, err := v.storage.GetOrganizationByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return validation.New("Organization not found")
		}
		return fmt.Errorf("failed to load organization: %w", err)
	}

	allowed := AllowedDomains(org, settings)
	if len(allowed) == 0 {
		v.logger.Debugf("organization %s requires a domain match but has no domains configured", organizationID)
		return nil
	}

	for _, d := range allowed {
		if d == domain {
			return nil
		}
	}

	return validation.Newf("Email domain '%s' is not allowed. Allowed domains: %s", domain, strings.Join(allowed, ", "))
}

// EmailDomain returns the lower-cased part after the last '@'.
func EmailDomain(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", validation.Newf("Invalid email address '%s'", email)
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:])), nil
}

// AllowedDomains is the sorted, de-duplicated, lower-cased union of every
// domain configured for the organization.
func AllowedDomains(org *types.Organization, settings *types.OrganizationSettings) []string {
	set := make(map[string]struct{})

	add := func(d string) {
		if d = NormalizeDomain(d); d != "" {
			set[d] = struct{}{}
		}
	}

	if org != nil {
		add(org.Domain)
		for _, d := range org.AllowedDomains {
			add(d)
		}
	}

	if settings != nil {
		for _, d := range settings.AllowedInvitationDomains {
			add(d)
		}
	}

	allowed := make([]string, 0, len(set))
	for d := range set {
		allowed = append(allowed, d)
	}
	sort.Strings(allowed)

	return allowed
}

func NormalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// NormalizeDomains trims, lower-cases and de-duplicates ds, dropping empties.
func NormalizeDomains(ds []string) []string {
	seen := make(map[string]struct{}, len(ds))
	out := make([]string, 0, len(ds))

	for _, d := range ds {
		d = NormalizeDomain(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}

	return out
}

func NewValidator(storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Validator {
	v := new(Validator)

	v.storage = storage

	v.tracer = tracer
	v.monitor = monitor
	v.logger = logger

	return v
}
