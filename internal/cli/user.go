package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"github.com/samandr77/crm/internal/app"
	"github.com/samandr77/crm/internal/entity"
)

func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserCreateCommand(opts))
	cmd.AddCommand(newUserListCommand(opts))
	cmd.AddCommand(newUserDeleteCommand(opts))

	return cmd
}

func newUserCreateCommand(opts *RootOptions) *cobra.Command {
	var nu entity.NewUser

	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nu.Role = entity.Role(role)

			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				u, delivery, err := a.Service.CreateUser(ctx, entity.SystemCaller(), nu)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"user": u, "welcomeMail": delivery})
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s), welcome mail: %s\n",
					u.Role, u.Email, u.ID, delivery.Detail)

				return err
			})
		},
	}

	cmd.Flags().StringVar(&nu.Email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&nu.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&nu.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(entity.RoleEmployee), "admin or employee")

	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts with their assigned customer counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				users, err := a.Service.Users(ctx, entity.SystemCaller())
				if err != nil {
					return fmt.Errorf("list users: %w", err)
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), users)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tNAME\tCUSTOMERS")

				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", u.ID, u.Email, u.Role, u.Name, u.AssignedCustomers)
				}

				return tw.Flush()
			})
		},
	}
}

func newUserDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user, unassigning its customers, tasks and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.FromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.DeleteUser(ctx, entity.SystemCaller(), id)
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), res)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s: %d customers, %d tasks, %d documents unassigned\n",
					id, res.UnassignedCustomers, res.UnassignedTasks, res.UnassignedDocuments)

				return err
			})
		},
	}
}
