package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage annotation tasks",
		Long: `Assign data items to annotators as tasks and track their work.

Managers assign, extend, shrink and delete tasks. Annotators start and
complete the task items assigned to them.`,
	}
	cmd.AddCommand(taskAssignCmd())
	cmd.AddCommand(taskBatchCmd("add", "added", "Add data items to a task", func(svc primary.TaskService) batchFunc { return svc.AssignItems }))
	cmd.AddCommand(taskBatchCmd("remove", "removed", "Take unstarted data items out of a task", func(svc primary.TaskService) batchFunc { return svc.RemoveItems }))
	cmd.AddCommand(taskWorkCmd("start", "Start work on a task item", func(svc primary.TaskService) workFunc { return svc.StartTaskItem }))
	cmd.AddCommand(taskWorkCmd("complete", "Complete a started task item", func(svc primary.TaskService) workFunc { return svc.CompleteTaskItem }))
	cmd.AddCommand(taskDeleteCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskItemsCmd())
	return cmd
}

func taskAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign [project-id] [annotator-id] [data-item-id...]",
		Short: "Create a task for an annotator",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			annotatorID, err := parseID(args[1], "annotator")
			if err != nil {
				return err
			}
			itemIDs, err := parseIDs(args[2:], "data item")
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			deadlineStr, _ := cmd.Flags().GetString("deadline")
			deadline, err := parseDeadline(deadlineStr)
			if err != nil {
				return err
			}

			resp, err := wire.TaskService().AssignTask(commandContext(cmd), primary.AssignTaskRequest{
				ProjectID:   projectID,
				AnnotatorID: annotatorID,
				DataItemIDs: itemIDs,
				Title:       title,
				Deadline:    deadline,
			})
			if err != nil {
				return fmt.Errorf("failed to assign task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created task %d: %s\n", resp.TaskID, resp.Task.Title)
			fmt.Fprintf(out, "  Assigned %d item(s) to user %d\n", resp.AssignedCount, annotatorID)
			printFailures(out, resp.FailedIDs)
			return nil
		},
	}
	cmd.Flags().String("title", "", "Task title (defaults to the project name)")
	cmd.Flags().String("deadline", "", "Deadline as RFC 3339 or YYYY-MM-DD")
	return cmd
}

type batchFunc func(ctx context.Context, taskID int64, ids []int64) (*primary.BatchResult, error)

type workFunc func(ctx context.Context, taskItemID int64) (*primary.ProgressSnapshot, error)

func taskBatchCmd(use, done, short string, pick func(primary.TaskService) batchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [task-id] [data-item-id...]",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[1:], "data item")
			if err != nil {
				return err
			}
			res, err := pick(wire.TaskService())(commandContext(cmd), taskID, ids)
			if err != nil {
				return fmt.Errorf("failed to %s items: %w", use, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %d item(s) %s\n", res.Count, done)
			printFailures(out, res.FailedIDs)
			return nil
		},
	}
}

func taskWorkCmd(use, short string, pick func(primary.TaskService) workFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [task-item-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task item")
			if err != nil {
				return err
			}
			snap, err := pick(wire.TaskService())(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("failed to %s task item: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Task item %d is %s; task %d is %s (%d/%d, %.0f%%)\n",
				snap.TaskItemID, colorStatus(snap.Status), snap.TaskID, colorStatus(snap.TaskStatus),
				snap.CompletedItems, snap.TotalItems, snap.TaskProgressPercent)
			return nil
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task whose items have not been started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			if err := wire.TaskService().DeleteTask(commandContext(cmd), id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted task %d\n", id)
			return nil
		},
	}
}

func taskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.TaskFilters
			f.ProjectID, _ = cmd.Flags().GetInt64("project")
			f.AnnotatorID, _ = cmd.Flags().GetInt64("annotator")
			f.Status, _ = cmd.Flags().GetString("status")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			tasks, err := wire.TaskService().ListTasks(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found")
				return nil
			}
			for _, t := range tasks {
				printTaskLine(out, t)
			}
			return nil
		},
	}
	cmd.Flags().Int64("project", 0, "Only tasks of this project")
	cmd.Flags().Int64("annotator", 0, "Only tasks of this annotator")
	cmd.Flags().StringP("status", "s", "", "Only tasks with this status")
	cmd.Flags().Int("limit", 0, "Maximum number of tasks")
	return cmd
}

func printTaskLine(out io.Writer, t *primary.Task) {
	fmt.Fprintf(out, "%-5d %-12s %3d/%-3d %5.1f%%  user %-5d %s\n",
		t.ID, colorStatus(t.Status), t.CompletedItems, t.TotalItems, t.ProgressPercent, t.AnnotatorID, t.Title)
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id]",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			t, err := wire.TaskService().GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %d: %s [%s]\n", t.ID, t.Title, colorStatus(t.Status))
			fmt.Fprintf(out, "  Project:   %d\n", t.ProjectID)
			fmt.Fprintf(out, "  Annotator: %d (assigned by %d)\n", t.AnnotatorID, t.AssignedBy)
			fmt.Fprintf(out, "  Progress:  %d/%d (%.1f%%)\n", t.CompletedItems, t.TotalItems, t.ProgressPercent)
			fmt.Fprintf(out, "  Deadline:  %s\n", formatOptionalTime(t.Deadline))
			fmt.Fprintf(out, "  Submitted: %s\n", formatOptionalTime(t.SubmittedAt))
			fmt.Fprintf(out, "  Completed: %s\n", formatOptionalTime(t.CompletedAt))
			return nil
		},
	}
}

func taskItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items [task-id]",
		Short: "List the items of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			items, err := wire.TaskService().ListTaskItems(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to list task items: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No task items found")
				return nil
			}
			for _, ti := range items {
				fmt.Fprintf(out, "%-6d data item %-6d %-12s started %s  completed %s\n",
					ti.ID, ti.DataItemID, colorStatus(ti.Status), formatOptionalTime(ti.StartedAt), formatOptionalTime(ti.CompletedAt))
			}
			return nil
		},
	}
}
