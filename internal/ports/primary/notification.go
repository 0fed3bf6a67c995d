package primary

import (
	"context"
	"time"
)

// NotificationService defines the primary port for the acting user's notifications.
type NotificationService interface {
	ListNotifications(ctx context.Context, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// Notification represents a notification at the port boundary.
type Notification struct {
	ID         int64
	UserID     int64
	Kind       string
	Message    string
	TargetType string
	TargetID   int64
	IsRead     bool
	CreatedAt  time.Time
}

// ActivityService defines the primary port for reading the activity log.
type ActivityService interface {
	ListActivity(ctx context.Context, filters ActivityFilters) ([]*Activity, error)
}

// Activity represents an activity log entry at the port boundary.
type Activity struct {
	ID            int64
	UserID        int64
	Action        string
	TargetType    string
	TargetID      int64
	Details       string
	CorrelationID string
	CreatedAt     time.Time
}

// ActivityFilters contains filter options for listing activity.
type ActivityFilters struct {
	UserID     int64
	TargetType string
	TargetID   int64
	Limit      int
}

// StatsService reports workflow status counts.
type StatsService interface {
	Stats(ctx context.Context) (*Stats, error)
}

// Stats counts data items and tasks per status.
type Stats struct {
	DataItems map[string]int
	Tasks     map[string]int
}
