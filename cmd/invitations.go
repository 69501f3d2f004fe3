// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/credentials"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/mail"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/domains"
	"github.com/canonical/workspace-service/pkg/invitations"
	"github.com/canonical/workspace-service/pkg/notifications"
)

var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Inspect and maintain invitations",
}

var purgeInvitationsCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete invitations used or expired longer than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		retention, _ := cmd.Flags().GetDuration("retention")

		svc, closeFn, err := invitationService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := svc.PurgeInvitations(cmd.Context(), retention)
		if err != nil {
			return fmt.Errorf("failed to purge invitations: %w", err)
		}

		cmd.Printf("Purged %d invitations\n", n)
		return nil
	},
}

var listInvitationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending invitations of an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		organizationID, _ := cmd.Flags().GetString("organization")

		svc, closeFn, err := invitationService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		pending, err := svc.GetPendingInvitations(cmd.Context(), organizationID)
		if err != nil {
			return fmt.Errorf("failed to list invitations: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tROLE\tEXPIRES AT")
		for _, i := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.ID, i.Email, i.InvitedRole, i.ExpiresAt.Format(time.RFC3339))
		}

		return w.Flush()
	},
}

func init() {
	invitationsCmd.PersistentFlags().String("dsn", "", "PostgreSQL DSN connection string")

	purgeInvitationsCmd.Flags().Duration("retention", invitations.DefaultHousekeepingRetention, "How long used or expired invitations are kept")

	listInvitationsCmd.Flags().String("organization", "", "Organization ID")
	_ = listInvitationsCmd.MarkFlagRequired("organization")

	invitationsCmd.AddCommand(purgeInvitationsCmd)
	invitationsCmd.AddCommand(listInvitationsCmd)
	rootCmd.AddCommand(invitationsCmd)
}

// invitationService builds a service that never sends email, for offline
// maintenance. The returned func closes the pool.
func invitationService(cmd *cobra.Command) (invitations.ServiceInterface, func(), error) {
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = os.Getenv("DSN")
	}
	if dsn == "" {
		return nil, nil, fmt.Errorf("no DSN provided, use --dsn or the DSN environment variable")
	}

	logger := logging.NewNoopLogger()
	monitor := monitoring.NewNoopMonitor("workspace-service")
	tracer := tracing.NewNoopTracer()

	dbClient, err := db.NewDBClient(
		db.Config{DSN: dsn, MaxConns: 2, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: 30 * time.Minute},
		tracer, monitor, logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	svc := invitations.NewService(
		s,
		dbClient,
		domains.NewValidator(s, tracer, monitor, logger),
		notifications.NewService(s, tracer, monitor, logger),
		mail.NewNoopMailer(),
		credentials.NewHasher(bcrypt.DefaultCost),
		invitations.Config{},
		tracer, monitor, logger,
	)

	return svc, dbClient.Close, nil
}
