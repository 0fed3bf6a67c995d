package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// ItemCmd returns the item command
func ItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Inspect data items and move them in bulk",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List data items",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.DataItemFilters
			f.DatasetID, _ = cmd.Flags().GetInt64("dataset")
			f.ProjectID, _ = cmd.Flags().GetInt64("project")
			f.Status, _ = cmd.Flags().GetString("status")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			items, err := wire.DataItemService().ListDataItems(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("failed to list data items: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No data items found")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "%-6d %-12s %-32s %8d B\n", it.ID, colorStatus(it.Status), it.FileName, it.FileSize)
			}
			return nil
		},
	}
	list.Flags().Int64("dataset", 0, "Only items of this dataset")
	list.Flags().Int64("project", 0, "Only items of this project")
	list.Flags().StringP("status", "s", "", "Only items with this status")
	list.Flags().Int("limit", 0, "Maximum number of items")

	show := &cobra.Command{
		Use:   "show [data-item-id]",
		Short: "Show a data item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			it, err := wire.DataItemService().GetDataItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data item %d: %s [%s]\n", it.ID, it.FileName, colorStatus(it.Status))
			fmt.Fprintf(out, "  Dataset: %d (project %d)\n", it.DatasetID, it.ProjectID)
			fmt.Fprintf(out, "  File:    %s (%d bytes, %s)\n", it.FilePath, it.FileSize, it.MimeType)
			fmt.Fprintf(out, "  Updated: %s\n", formatTime(it.UpdatedAt))
			return nil
		},
	}

	bulk := &cobra.Command{
		Use:   "bulk-status [status] [data-item-id...]",
		Short: "Move data items to a status",
		Long: `Move each listed data item to the status. Items that cannot make the
move are reported and the rest are applied. Only pending, in_progress and
submitted are accepted as targets.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:], "data item")
			if err != nil {
				return err
			}
			res, err := wire.DataItemService().BulkUpdateStatus(commandContext(cmd), ids, args[0])
			if err != nil {
				return fmt.Errorf("failed to update status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Moved %d item(s) to %s\n", res.Affected, colorStatus(args[0]))
			printFailures(out, res.FailedIDs)
			return nil
		},
	}

	cmd.AddCommand(list, show, bulk)
	return cmd
}
