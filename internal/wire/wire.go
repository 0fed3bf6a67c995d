// Package wire provides dependency injection for labelr.
// It builds the services once, lazily, from the configuration file.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/example/labelr/internal/adapters/activity"
	"github.com/example/labelr/internal/adapters/filesystem"
	"github.com/example/labelr/internal/adapters/sqlite"
	"github.com/example/labelr/internal/app"
	"github.com/example/labelr/internal/config"
	"github.com/example/labelr/internal/db"
	"github.com/example/labelr/internal/logging"
	"github.com/example/labelr/internal/metrics"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// Container holds the configured services and the resources behind them.
type Container struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *sql.DB
	Registry *prometheus.Registry

	Users         primary.UserService
	Projects      primary.ProjectService
	Datasets      primary.DatasetService
	DataItems     primary.DataItemService
	Tasks         primary.TaskService
	Annotations   primary.AnnotationService
	Reviews       primary.ReviewService
	Notifications primary.NotificationService
	Activity      primary.ActivityService
	Stats         primary.StatsService

	closers []func() error
}

var (
	configPath = config.Path()
	container  *Container
	once       sync.Once
)

// SetConfigPath selects the configuration file. It must be called before
// the first service is requested.
func SetConfigPath(path string) {
	configPath = path
}

// ConfigPath returns the configuration file in use.
func ConfigPath() string {
	return configPath
}

// Use installs a prebuilt container in place of the lazily built one.
func Use(c *Container) {
	once.Do(func() {})
	container = c
}

// Current returns the container if it has been built, or nil.
func Current() *Container {
	return container
}

// Get returns the singleton container, building it on first use.
func Get() *Container {
	once.Do(initContainer)
	return container
}

// initContainer loads the configuration and builds every service.
// This is called once via sync.Once.
func initContainer() {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	c, err := Build(context.Background(), cfg, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize labelr: %v", err)
	}
	container = c
}

// Build opens the database and file storage described by cfg and wires the
// services over them. Logs go to logOut.
func Build(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Container, error) {
	logger, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, DB: conn}
	c.closers = append(c.closers, conn.Close)

	files, err := filesystem.NewFileStorage(cfg.Storage.Root)
	if err != nil {
		c.Close()
		return nil, err
	}

	store := sqlite.NewStore(conn)

	var sink secondary.ActivitySink = activity.NewStoreSink(store.Repos().Activity())
	if cfg.NATS.URL != "" {
		natsSink, nc, err := activity.ConnectNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("activity publishing disabled")
		} else {
			sink = activity.Fanout{sink, natsSink}
			c.closers = append(c.closers, nc.Drain)
		}
	}

	c.Registry = prometheus.NewRegistry()
	deps := app.Deps{
		Store:    store,
		Files:    files,
		Activity: sink,
		Observer: metrics.NewObserver(c.Registry),
		Logger:   logger,
	}

	c.Users = app.NewUserService(deps)
	c.Projects = app.NewProjectService(deps)
	c.Datasets = app.NewDatasetService(deps)
	c.DataItems = app.NewDataItemService(deps)
	c.Tasks = app.NewTaskService(deps)
	c.Annotations = app.NewAnnotationService(deps)
	c.Reviews = app.NewReviewService(deps)
	c.Notifications = app.NewNotificationService(deps)
	c.Activity = app.NewActivityService(deps)
	c.Stats = app.NewStatsService(deps)

	if err := c.Registry.Register(metrics.NewStatusCollector(c.Stats)); err != nil {
		c.Close()
		return nil, fmt.Errorf("register status collector: %w", err)
	}
	return c, nil
}

// Close releases the resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	c.closers = nil
	return errors.Join(errList...)
}

// UserService returns the singleton UserService instance.
func UserService() primary.UserService { return Get().Users }

// ProjectService returns the singleton ProjectService instance.
func ProjectService() primary.ProjectService { return Get().Projects }

// DatasetService returns the singleton DatasetService instance.
func DatasetService() primary.DatasetService { return Get().Datasets }

// DataItemService returns the singleton DataItemService instance.
func DataItemService() primary.DataItemService { return Get().DataItems }

// TaskService returns the singleton TaskService instance.
func TaskService() primary.TaskService { return Get().Tasks }

// AnnotationService returns the singleton AnnotationService instance.
func AnnotationService() primary.AnnotationService { return Get().Annotations }

// ReviewService returns the singleton ReviewService instance.
func ReviewService() primary.ReviewService { return Get().Reviews }

// NotificationService returns the singleton NotificationService instance.
func NotificationService() primary.NotificationService { return Get().Notifications }

// ActivityService returns the singleton ActivityService instance.
func ActivityService() primary.ActivityService { return Get().Activity }

// StatsService returns the singleton StatsService instance.
func StatsService() primary.StatsService { return Get().Stats }
