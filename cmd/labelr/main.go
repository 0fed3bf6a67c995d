package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/cli"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/version"
	"github.com/example/labelr/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "labelr",
		Short:   "labelr - data labeling workflow",
		Version: version.String(),
		Long: `labelr manages image annotation work: datasets of data items, tasks
assigned to annotators, annotations and reviewer decisions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.ProjectCmd())
	rootCmd.AddCommand(cli.LabelCmd())

	// Data
	rootCmd.AddCommand(cli.DatasetCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.ItemCmd())

	// Workflow
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.AnnotateCmd())
	rootCmd.AddCommand(cli.ReviewCmd())
	rootCmd.AddCommand(cli.NotificationCmd())
	rootCmd.AddCommand(cli.ActivityCmd())
	rootCmd.AddCommand(cli.StatsCmd())

	// Operations
	rootCmd.AddCommand(cli.MetricsCmd())
	rootCmd.AddCommand(cli.DevCmd())

	err := rootCmd.Execute()
	if c := wire.Current(); c != nil {
		c.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return 3
	case errs.KindConflict:
		return 4
	case errs.KindValidation:
		return 5
	case errs.KindForbidden, errs.KindUnauthorized:
		return 6
	}
	return 1
}
