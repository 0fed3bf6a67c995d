// Package metrics exports workflow transitions and status counts to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/labelr/internal/core/dataitem"
	coretask "github.com/example/labelr/internal/core/task"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

const namespace = "labelr"

// Observer counts committed transitions. It implements secondary.WorkflowObserver.
type Observer struct {
	dataItems *prometheus.CounterVec
	tasks     *prometheus.CounterVec
	reviews   *prometheus.CounterVec
}

// NewObserver registers the transition counters with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		dataItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_item_transitions_total",
			Help:      "Committed data item status transitions.",
		}, []string{"from", "to"}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_transitions_total",
			Help:      "Committed annotation task status transitions.",
		}, []string{"from", "to"}),
		reviews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Recorded review decisions.",
		}, []string{"decision"}),
	}
}

func (o *Observer) DataItemTransition(from, to string) {
	o.dataItems.WithLabelValues(from, to).Inc()
}

func (o *Observer) TaskTransition(from, to string) {
	o.tasks.WithLabelValues(from, to).Inc()
}

func (o *Observer) ReviewRecorded(decision string) {
	o.reviews.WithLabelValues(decision).Inc()
}

var _ secondary.WorkflowObserver = (*Observer)(nil)

// StatusCollector reports the current number of data items and tasks per
// status, read from the database at scrape time.
type StatusCollector struct {
	stats     primary.StatsService
	timeout   time.Duration
	dataItems *prometheus.Desc
	tasks     *prometheus.Desc
}

// NewStatusCollector creates a collector backed by stats.
func NewStatusCollector(stats primary.StatsService) *StatusCollector {
	return &StatusCollector{
		stats:   stats,
		timeout: 5 * time.Second,
		dataItems: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "data_items"),
			"Data items per status.",
			[]string{"status"}, nil,
		),
		tasks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tasks"),
			"Annotation tasks per status.",
			[]string{"status"}, nil,
		),
	}
}

var taskStatuses = []coretask.Status{
	coretask.StatusAssigned,
	coretask.StatusInProgress,
	coretask.StatusSubmitted,
	coretask.StatusCompleted,
}

func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dataItems
	ch <- c.tasks
}

// Collect emits one gauge per known status, zero when absent.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.stats.Stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.dataItems, err)
		ch <- prometheus.NewInvalidMetric(c.tasks, err)
		return
	}
	for _, s := range dataitem.AllStatuses() {
		ch <- prometheus.MustNewConstMetric(c.dataItems, prometheus.GaugeValue, float64(stats.DataItems[string(s)]), string(s))
	}
	for _, s := range taskStatuses {
		ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.GaugeValue, float64(stats.Tasks[string(s)]), string(s))
	}
}

// Handler serves the registry in the prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics exporter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
