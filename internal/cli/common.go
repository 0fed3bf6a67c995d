// Package cli implements the labelr commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/config"
	"github.com/example/labelr/internal/ctxutil"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/wire"
)

// BindGlobalFlags adds --config and --as to the root command.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", config.Path(), "Path to the labelr config file")
	root.PersistentFlags().Int64("as", 0, "Acting user ID (defaults to the configured actor)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			wire.SetConfigPath(path)
		}
	}
}

// commandContext returns the command context carrying the acting user.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	actor, _ := cmd.Flags().GetInt64("as")
	if !cmd.Flags().Changed("as") {
		actor = wire.Get().Config.Actor
	}
	if actor != 0 {
		ctx = ctxutil.WithActorID(ctx, actor)
	}
	return ctx
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, s)
	}
	return id, nil
}

func parseIDs(args []string, what string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part, what)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseDeadline accepts RFC 3339 or a plain date (end of that day, UTC).
func parseDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q (want RFC 3339 or YYYY-MM-DD)", s)
	}
	end := d.Add(24*time.Hour - time.Second)
	return &end, nil
}

var statusColors = map[string]*color.Color{
	"pending":     color.New(color.FgWhite),
	"assigned":    color.New(color.FgCyan),
	"in_progress": color.New(color.FgYellow),
	"submitted":   color.New(color.FgBlue),
	"approved":    color.New(color.FgGreen),
	"completed":   color.New(color.FgGreen),
	"rejected":    color.New(color.FgRed),
}

// colorStatus renders a status in its color. Color is disabled when
// stdout is not a terminal.
func colorStatus(status string) string {
	if c, ok := statusColors[status]; ok {
		return c.Sprint(status)
	}
	return status
}

func printFailures(out io.Writer, failures []errs.ItemFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(out, "%s %d item(s) failed:\n", color.New(color.FgRed).Sprint("✗"), len(failures))
	for _, f := range failures {
		fmt.Fprintf(out, "  %d: %s\n", f.ID, f.Reason)
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}
