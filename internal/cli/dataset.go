package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ingest"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// DatasetCmd returns the dataset command
func DatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets and their files",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := wire.DatasetService().ListDatasets(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list datasets: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(datasets) == 0 {
				fmt.Fprintln(out, "No datasets found")
				return nil
			}
			for _, ds := range datasets {
				fmt.Fprintf(out, "%-5d project %-5d %-24s %6d item(s) %10.2f MB\n", ds.ID, ds.ProjectID, ds.Name, ds.TotalItems, ds.TotalSizeMB)
			}
			return nil
		},
	}

	recount := &cobra.Command{
		Use:   "recount [dataset-id]",
		Short: "Recompute the item count and size of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "dataset")
			if err != nil {
				return err
			}
			ds, err := wire.DatasetService().RecountDataset(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("failed to recount dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset %d: %d item(s), %.2f MB\n", ds.ID, ds.TotalItems, ds.TotalSizeMB)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [dataset-id] [file...]",
		Short: "Upload files into a dataset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "dataset")
			if err != nil {
				return err
			}
			mime, _ := cmd.Flags().GetString("mime-type")
			out := cmd.OutOrStdout()
			for _, path := range args[1:] {
				item, err := addFile(cmd, id, path, mime)
				if err != nil {
					return fmt.Errorf("failed to add %s: %w", path, err)
				}
				fmt.Fprintf(out, "✓ Added data item %d: %s (%d bytes, %s)\n", item.ID, item.FileName, item.FileSize, item.MimeType)
			}
			return nil
		},
	}
	add.Flags().String("mime-type", "", "MIME type (guessed from the extension when empty)")

	remove := &cobra.Command{
		Use:   "remove [data-item-id]",
		Short: "Remove a pending data item and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			if err := wire.DatasetService().RemoveItem(commandContext(cmd), id); err != nil {
				return fmt.Errorf("failed to remove data item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed data item %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, recount, add, remove)
	return cmd
}

func addFile(cmd *cobra.Command, datasetID int64, path, mime string) (*primary.DataItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wire.DatasetService().AddItem(commandContext(cmd), primary.AddItemRequest{
		DatasetID: datasetID,
		FileName:  filepath.Base(path),
		MimeType:  mime,
		Content:   f,
	})
}

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [dataset-id] [dir]",
		Short: "Upload every matching file under a directory",
		Long: `Walk a directory and upload every file matching the ingest include
patterns of the config. With --watch, keep running and upload new files as
they appear until interrupted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetID, err := parseID(args[0], "dataset")
			if err != nil {
				return err
			}
			root := args[1]
			c := wire.Get()

			filter, err := ingest.NewFilter(c.Config.Ingest.Include, c.Config.Ingest.Exclude)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			in := ingest.New(c.Datasets, filter, datasetID, c.Logger)
			out := cmd.OutOrStdout()

			report, err := in.Dir(ctx, root)
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", root, err)
			}
			fmt.Fprintf(out, "✓ Added %d file(s), skipped %d\n", len(report.Added), report.Skipped)
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  ✗ %s: %s\n", f.Path, f.Reason)
			}

			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				return nil
			}

			debounce, err := time.ParseDuration(c.Config.Ingest.Debounce)
			if err != nil {
				return fmt.Errorf("invalid ingest.debounce %q: %w", c.Config.Ingest.Debounce, err)
			}
			w, err := ingest.NewWatcher(in, root, debounce)
			if err != nil {
				return err
			}
			w.OnAdded = func(path string, id int64) {
				fmt.Fprintf(out, "✓ Added data item %d: %s\n", id, path)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", root)
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Keep watching for new files")
	return cmd
}
