package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// NotificationCmd returns the notifications command
func NotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Show the acting user's notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			unread, _ := cmd.Flags().GetBool("unread")
			notes, err := wire.NotificationService().ListNotifications(commandContext(cmd), unread)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "No notifications")
				return nil
			}
			for _, n := range notes {
				marker := " "
				if !n.IsRead {
					marker = color.New(color.FgHiMagenta).Sprint("●")
				}
				fmt.Fprintf(out, "%s %-5d %s  %s\n", marker, n.ID, formatTime(n.CreatedAt), n.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("unread", "u", false, "Only unread notifications")

	cmd.AddCommand(&cobra.Command{
		Use:   "read [notification-id]",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "notification")
			if err != nil {
				return err
			}
			if err := wire.NotificationService().MarkRead(commandContext(cmd), id); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Notification %d marked read\n", id)
			return nil
		},
	})
	return cmd
}

// ActivityCmd returns the activity command
func ActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f primary.ActivityFilters
			f.UserID, _ = cmd.Flags().GetInt64("user")
			f.TargetType, _ = cmd.Flags().GetString("target-type")
			f.TargetID, _ = cmd.Flags().GetInt64("target-id")
			f.Limit, _ = cmd.Flags().GetInt("limit")

			entries, err := wire.ActivityService().ListActivity(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("failed to list activity: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity found")
				return nil
			}
			for _, a := range entries {
				fmt.Fprintf(out, "%s  user %-4d %-24s %s %d", formatTime(a.CreatedAt), a.UserID, a.Action, a.TargetType, a.TargetID)
				if a.Details != "" {
					fmt.Fprintf(out, "  %s", a.Details)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().Int64("user", 0, "Only entries by this user")
	cmd.Flags().String("target-type", "", "Only entries on this target type")
	cmd.Flags().Int64("target-id", 0, "Only entries on this target ID")
	cmd.Flags().Int("limit", 0, "Maximum number of entries (default 50)")
	return cmd
}

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count data items and tasks per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := wire.StatsService().Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Data items:")
			printCounts(cmd, stats.DataItems)
			fmt.Fprintln(out, "Tasks:")
			printCounts(cmd, stats.Tasks)
			return nil
		},
	}
}

func printCounts(cmd *cobra.Command, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %d\n", colorStatus(k), counts[k])
	}
}
