package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/metrics"
	"github.com/example/labelr/internal/wire"
)

// MetricsCmd returns the metrics command
func MetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Prometheus exporter",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve /metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := wire.Get()
			addr, _ := cmd.Flags().GetString("listen")
			if addr == "" {
				addr = c.Config.Metrics.Listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return metrics.Serve(ctx, addr, c.Registry, c.Logger)
		},
	}
	serve.Flags().String("listen", "", "Listen address (defaults to metrics.listen)")

	cmd.AddCommand(serve)
	return cmd
}
