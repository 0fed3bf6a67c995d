package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/db"
	"github.com/example/labelr/internal/wire"
)

// DevCmd returns the dev command
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "dev",
		Short:  "Developer tools",
		Hidden: true,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Seed an empty database with demo users, a project and labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.SeedFixtures(wire.Get().DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Seeded development fixtures (admin is user 1, \"root\")")
			return nil
		},
	})
	return cmd
}
