package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/webshell/internal/data"
	domainauth "github.com/target/webshell/internal/domain/auth"
	apperrors "github.com/target/webshell/internal/errors"
)

// roleStore is the part of data.RoleRepo the roles commands use.
type roleStore interface {
	Set(ctx context.Context, userID string, role domainauth.Role) (*data.RoleAssignment, error)
	Lookup(ctx context.Context, userID string) (*data.RoleAssignment, error)
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context, role domainauth.Role, limit, offset int) ([]data.RoleAssignment, error)
}

var _ roleStore = (*data.RoleRepo)(nil)

func newRolesCmd(app *adminApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage explicit role assignments",
	}
	cmd.AddCommand(
		newRolesSetCmd(app),
		newRolesGetCmd(app),
		newRolesDeleteCmd(app),
		newRolesListCmd(app),
	)
	return cmd
}

func parseRoleArg(s string) (domainauth.Role, error) {
	role, ok := domainauth.ParseRole(s)
	if !ok {
		return domainauth.RoleNone, fmt.Errorf("unknown role %q (valid: admin, trainer)", s)
	}
	return role, nil
}

// withRoles opens the role store for the duration of fn.
func withRoles(cmd *cobra.Command, app *adminApp, fn func(roleStore) error) error {
	store, closeFn, err := app.OpenRoles(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(store)
}

func newRolesSetCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "set <user-id> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := parseRoleArg(args[1])
			if err != nil {
				return err
			}
			return withRoles(cmd, app, func(store roleStore) error {
				a, err := store.Set(cmd.Context(), args[0], role)
				if err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "%s is now %s\n", a.UserID, a.Role)
			})
		},
	}
}

func newRolesGetCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show a user's assigned role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoles(cmd, app, func(store roleStore) error {
				a, err := store.Lookup(cmd.Context(), args[0])
				if apperrors.IsNotFound(err) {
					return writef(cmd.OutOrStdout(), "%s has no assigned role\n", args[0])
				}
				if err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "%s\t%s\tupdated %s\n",
					a.UserID, a.Role, a.UpdatedAt.Format(time.RFC3339))
			})
		},
	}
}

func newRolesDeleteCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Remove a user's assigned role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoles(cmd, app, func(store roleStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "removed role for %s\n", args[0])
			})
		},
	}
}

func newRolesListCmd(app *adminApp) *cobra.Command {
	var (
		roleFilter string
		limit      int
		offset     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List role assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role := domainauth.RoleNone
			if roleFilter != "" {
				r, err := parseRoleArg(roleFilter)
				if err != nil {
					return err
				}
				role = r
			}
			return withRoles(cmd, app, func(store roleStore) error {
				items, err := store.List(cmd.Context(), role, limit, offset)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				if err := writef(tw, "USER\tROLE\tUPDATED\n"); err != nil {
					return err
				}
				for _, a := range items {
					if err := writef(tw, "%s\t%s\t%s\n", a.UserID, a.Role, a.UpdatedAt.Format(time.RFC3339)); err != nil {
						return err
					}
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&roleFilter, "role", "", "only show this role (admin|trainer)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}
