package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/config"
	"github.com/example/labelr/internal/db"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the labelr config and database",
		Long: `Write a default config file (unless one exists), create the database
with the current schema and optionally create the first admin account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := wire.ConfigPath()

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := config.Default().Save(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote default config to %s\n", path)
			} else {
				fmt.Fprintf(out, "Using existing config %s\n", path)
			}

			c := wire.Get()
			version, _, err := db.SchemaVersion(c.DB, c.Config.Database.Driver)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(out, "✓ Database ready at %s (schema v%d)\n", c.Config.Database.Path, version)

			admin, _ := cmd.Flags().GetString("admin")
			if admin == "" {
				return nil
			}
			email, _ := cmd.Flags().GetString("email")
			user, err := c.Users.Bootstrap(cmd.Context(), primary.CreateUserRequest{Username: admin, Email: email})
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			fmt.Fprintf(out, "✓ Created admin %s (ID %d)\n", user.Username, user.ID)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  export LABELR_ACTOR=%d\n", user.ID)
			fmt.Fprintln(out, "  labelr project create \"My Project\"")
			return nil
		},
	}
	cmd.Flags().String("admin", "", "Create the first admin with this username")
	cmd.Flags().String("email", "", "Email of the first admin")
	return cmd
}
