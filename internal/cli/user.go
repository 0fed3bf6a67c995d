package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userBootstrapCmd())
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userShowCmd())
	cmd.AddCommand(userSetActiveCmd("deactivate", "Disable a user account", false))
	cmd.AddCommand(userSetActiveCmd("activate", "Re-enable a user account", true))
	return cmd
}

func userRequest(cmd *cobra.Command, username string) primary.CreateUserRequest {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	return primary.CreateUserRequest{Username: username, Email: email, FullName: name, Role: role}
}

func userBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap [username]",
		Short: "Create the first admin (only while no user exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := wire.UserService().Bootstrap(cmd.Context(), userRequest(cmd, args[0]))
			if err != nil {
				return fmt.Errorf("failed to bootstrap admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created admin %s (ID %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("name", "", "Full name")
	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [username]",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := wire.UserService().CreateUser(commandContext(cmd), userRequest(cmd, args[0]))
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s %s (ID %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().String("role", "annotator", "Role: admin, manager, annotator or reviewer")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("name", "", "Full name")
	return cmd
}

func userListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			users, err := wire.UserService().ListUsers(cmd.Context(), role)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}
			for _, u := range users {
				state := ""
				if !u.IsActive {
					state = " (inactive)"
				}
				fmt.Fprintf(out, "%-5d %-16s %-10s %s%s\n", u.ID, u.Username, u.Role, u.FullName, state)
			}
			return nil
		},
	}
	cmd.Flags().String("role", "", "Only users with this role")
	return cmd
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			u, err := wire.UserService().GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User %d: %s\n", u.ID, u.Username)
			fmt.Fprintf(out, "  Role:    %s\n", u.Role)
			fmt.Fprintf(out, "  Active:  %v\n", u.IsActive)
			if u.FullName != "" {
				fmt.Fprintf(out, "  Name:    %s\n", u.FullName)
			}
			if u.Email != "" {
				fmt.Fprintf(out, "  Email:   %s\n", u.Email)
			}
			fmt.Fprintf(out, "  Created: %s\n", formatTime(u.CreatedAt))
			return nil
		},
	}
}

func userSetActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [user-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			svc := wire.UserService()
			if active {
				err = svc.ActivateUser(commandContext(cmd), id)
			} else {
				err = svc.DeactivateUser(commandContext(cmd), id)
			}
			if err != nil {
				return fmt.Errorf("failed to %s user: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ User %d %sd\n", id, use)
			return nil
		},
	}
}
