package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samandr77/crm/internal/app"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				err := a.Migrate(ctx)
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "migrated", "dialect": string(a.Dialect)})
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s database is up to date\n", a.Dialect)

				return err
			})
		},
	}
}

func NewBootstrapCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default admin and customer groups if missing",
		Long: `Create the admin configured by BOOTSTRAP_ADMIN_* when no admin exists,
and seed the default customer groups when there are none. Running it again is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				err := a.Migrate(ctx)
				if err != nil {
					return err
				}

				created, err := a.Bootstrap(ctx)
				if err != nil {
					return fmt.Errorf("bootstrap: %w", err)
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]bool{"adminCreated": created})
				}

				msg := "an admin already exists, nothing to do"
				if created {
					msg = "created admin " + a.Config.Bootstrap.AdminEmail
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)

				return err
			})
		},
	}
}
