// Command kanvactl runs maintenance tasks against the KANVA database:
// schema migrations, template payload migration, subscription resync and
// role or credit fixes.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fanpost/kanva/internal"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app opens its dependencies on first use so that argument errors are
// reported without a database.
type app struct {
	cfg      *internal.Config
	logger   *slog.Logger
	db       *sql.DB
	store    repository.Store
	services *internal.Services
}

func (a *app) open(ctx context.Context) error {
	if a.services != nil {
		return nil
	}

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	a.cfg = cfg
	a.logger = internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	db, err := internal.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	a.db = db
	a.store = repository.NewStore(db)

	files, err := internal.NewStorage(cfg, a.logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Maintenance runs do not publish domain events.
	a.services = internal.NewServices(cfg, a.store, files, internal.NewBilling(cfg), events.Nop{}, a.logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kanvactl",
		Short:         "KANVA maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.AddCommand(
		newMigrateCmd(a),
		newMigrateTemplatesCmd(a),
		newSyncSubscriptionsCmd(a),
		newRolesCmd(a),
		newCreditsCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "kanvactl %s\n", version)
			},
		},
	)
	return cmd
}
