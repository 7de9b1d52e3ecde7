package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fanpost/kanva/internal"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := internal.RunMigrations(a.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			v, err := internal.MigrationVersion(a.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			return internal.MigrationStatus(a.db)
		},
	})

	return cmd
}

func newMigrateTemplatesCmd(a *app) *cobra.Command {
	var (
		dryRun    bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "migrate-templates",
		Short: "Upgrade stored templates to the current schema",
		Long: `Upgrades every template stored below the current schema version.
Rows that fail to convert are reported and left untouched. Running it again
only picks up what is still outdated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize < 1 {
				return fmt.Errorf("--batch must be at least 1, got %d", batchSize)
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			report, err := a.services.Templates.MigrateAll(cmd.Context(), dryRun, batchSize)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d template(s) could not be migrated", len(report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().IntVar(&batchSize, "batch", 100, "Rows read per batch")
	return cmd
}

func newSyncSubscriptionsCmd(a *app) *cobra.Command {
	var userArg string

	cmd := &cobra.Command{
		Use:   "sync-subscriptions",
		Short: "Reconcile roles with Stripe subscriptions",
		Long: `Without --user, enqueues a sync job for every non-admin user with a
Stripe customer; the server's worker processes them. With --user, syncs that
user immediately and prints the outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID uuid.UUID
			if userArg != "" {
				id, err := parseUserID(userArg)
				if err != nil {
					return err
				}
				userID = id
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			if userID != uuid.Nil {
				result, err := a.services.Subscriptions.SyncSubscription(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}

			n, err := a.services.Subscriptions.EnqueueSyncAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d sync job(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&userArg, "user", "", "Sync a single user now")
	return cmd
}

func newRolesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect or override user roles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <user-id>...",
		Short: "Print the role of one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userIDs := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				userID, err := parseUserID(arg)
				if err != nil {
					return err
				}
				userIDs = append(userIDs, userID)
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			roles, err := a.services.Tiers.ResolveRoles(cmd.Context(), userIDs)
			if err != nil {
				return err
			}
			for _, userID := range userIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", userID, roles[userID])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <user-id> <role>",
		Short: "Store a role (free_user, paid_user, admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			role := domain.Role(args[1])
			if !role.IsValid() {
				return fmt.Errorf("invalid role %q", args[1])
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			changed, err := a.services.Tiers.SetRole(cmd.Context(), userID, role)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has role %s\n", userID, role)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", userID, role)
			return nil
		},
	})

	return cmd
}

func newCreditsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect or adjust credit ledgers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			balance, err := a.services.Credits.FetchBalance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if balance == nil {
				fmt.Fprintln(cmd.OutOrStdout(), domain.CreditsStatusUninitialized)
				return nil
			}
			return printJSON(cmd, balance)
		},
	})

	var reference string
	grant := &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Short: "Add purchased credits, once per reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil || amount < 1 {
				return fmt.Errorf("amount must be a positive integer up to %d, got %q", domain.MaxCreditAmount, args[1])
			}
			if reference == "" {
				return fmt.Errorf("--reference is required")
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			balance, err := a.services.Credits.GrantPurchasedCredits(cmd.Context(), userID, int(amount), reference)
			if err != nil {
				return err
			}
			return printJSON(cmd, balance)
		},
	}
	grant.Flags().StringVar(&reference, "reference", "", "Payment or ticket reference; repeated grants are ignored")
	cmd.AddCommand(grant)

	return cmd
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
