package app

import (
	"context"
	"fmt"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// NotificationServiceImpl implements the NotificationService interface for the acting user.
type NotificationServiceImpl struct {
	workflow
}

// NewNotificationService creates a new NotificationService with injected dependencies.
func NewNotificationService(deps Deps) *NotificationServiceImpl {
	return &NotificationServiceImpl{workflow: newWorkflow(deps)}
}

// ListNotifications lists the acting user's notifications, newest first.
func (s *NotificationServiceImpl) ListNotifications(ctx context.Context, unreadOnly bool) ([]*primary.Notification, error) {
	repos := s.store.Repos()
	actor, err := loadActor(ctx, repos)
	if err != nil {
		return nil, err
	}
	records, err := repos.Notifications().ListByUser(ctx, actor.ID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return mapSlice(records, recordToNotification), nil
}

// MarkRead marks one of the acting user's notifications as read.
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		return uow.Notifications().MarkRead(ctx, id, actor.ID)
	})
}

// ActivityServiceImpl implements the ActivityService interface.
type ActivityServiceImpl struct {
	workflow
}

// NewActivityService creates a new ActivityService with injected dependencies.
func NewActivityService(deps Deps) *ActivityServiceImpl {
	return &ActivityServiceImpl{workflow: newWorkflow(deps)}
}

// ListActivity lists activity entries, newest first.
func (s *ActivityServiceImpl) ListActivity(ctx context.Context, filters primary.ActivityFilters) ([]*primary.Activity, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	records, err := s.store.Repos().Activity().List(ctx, secondary.ActivityFilters{
		UserID:     filters.UserID,
		TargetType: filters.TargetType,
		TargetID:   filters.TargetID,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return mapSlice(records, recordToActivity), nil
}

// StatsServiceImpl implements the StatsService interface.
type StatsServiceImpl struct {
	workflow
}

// NewStatsService creates a new StatsService with injected dependencies.
func NewStatsService(deps Deps) *StatsServiceImpl {
	return &StatsServiceImpl{workflow: newWorkflow(deps)}
}

// Stats counts data items and tasks per status.
func (s *StatsServiceImpl) Stats(ctx context.Context) (*primary.Stats, error) {
	repos := s.store.Repos()
	items, err := repos.DataItems().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := repos.Tasks().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &primary.Stats{DataItems: items, Tasks: tasks}, nil
}

var (
	_ primary.NotificationService = (*NotificationServiceImpl)(nil)
	_ primary.ActivityService     = (*ActivityServiceImpl)(nil)
	_ primary.StatsService        = (*StatsServiceImpl)(nil)
)
