package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// ProjectCmd returns the project command
func ProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long:  "Create and list projects. Each project owns one dataset and a set of labels.",
	}

	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project and its dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			p, err := wire.ProjectService().CreateProject(commandContext(cmd), primary.CreateProjectRequest{
				Name:        args[0],
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project %d: %s\n", p.ID, p.Name)
			return nil
		},
	}
	create.Flags().StringP("description", "d", "", "Project description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := wire.ProjectService().ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found")
				return nil
			}
			for _, p := range projects {
				fmt.Fprintf(out, "%-5d %s", p.ID, p.Name)
				if p.Description != "" {
					fmt.Fprintf(out, " - %s", p.Description)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [project-id]",
		Short: "Show a project with its dataset and labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := wire.ProjectService().GetProject(ctx, id)
			if err != nil {
				return err
			}
			ds, err := wire.DatasetService().GetDatasetByProject(ctx, id)
			if err != nil {
				return err
			}
			labels, err := wire.ProjectService().ListLabels(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %d: %s\n", p.ID, p.Name)
			if p.Description != "" {
				fmt.Fprintf(out, "  %s\n", p.Description)
			}
			fmt.Fprintf(out, "Dataset %d: %d item(s), %.2f MB\n", ds.ID, ds.TotalItems, ds.TotalSizeMB)
			fmt.Fprintf(out, "Labels (%d):\n", len(labels))
			for _, l := range labels {
				fmt.Fprintf(out, "  %-5d %-16s %-14s %s\n", l.ID, l.Name, l.Type, l.Color)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list, show)
	return cmd
}

// LabelCmd returns the label command
func LabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage project labels",
	}

	create := &cobra.Command{
		Use:   "create [project-id] [name]",
		Short: "Add a label to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			typ, _ := cmd.Flags().GetString("type")
			clr, _ := cmd.Flags().GetString("color")
			l, err := wire.ProjectService().CreateLabel(commandContext(cmd), primary.CreateLabelRequest{
				ProjectID: projectID,
				Name:      args[1],
				Type:      typ,
				Color:     clr,
			})
			if err != nil {
				return fmt.Errorf("failed to create label: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s label %d: %s (%s)\n", l.Type, l.ID, l.Name, l.Color)
			return nil
		},
	}
	create.Flags().StringP("type", "t", "bbox", "Label type: bbox, polygon or classification")
	create.Flags().StringP("color", "c", "", "Display color as #rrggbb")

	list := &cobra.Command{
		Use:   "list [project-id]",
		Short: "List the labels of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			labels, err := wire.ProjectService().ListLabels(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("failed to list labels: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(labels) == 0 {
				fmt.Fprintln(out, "No labels found")
				return nil
			}
			for _, l := range labels {
				fmt.Fprintf(out, "%-5d %-16s %-14s %s\n", l.ID, l.Name, l.Type, l.Color)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
