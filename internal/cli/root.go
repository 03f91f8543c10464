package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/samandr77/crm/internal/app"
	"github.com/samandr77/crm/pkg/config"
	"github.com/samandr77/crm/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvPath string
	Format  string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Operator tooling for the CRM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvPath, "env", ".env", "path to the .env file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBootstrapCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewMailRelayCommand(opts))

	return cmd
}

// withApp loads the configuration and runs fn against a freshly assembled application.
func withApp(ctx context.Context, opts *RootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.New(opts.EnvPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	_, err = logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
