package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// NotificationRepository implements secondary.NotificationRepository with SQLite.
type NotificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *secondary.NotificationRecord) error {
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, message, target_type, target_id, is_read, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		n.UserID, n.Kind, n.Message, n.TargetType, n.TargetID, formatTime(n.CreatedAt), formatTime(n.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create notification")
	}
	n.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*secondary.NotificationRecord, error) {
	query := `SELECT id, user_id, kind, message, target_type, target_id, is_read, created_at, updated_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*secondary.NotificationRecord
	for rows.Next() {
		var createdAt, updatedAt dbTime
		n := &secondary.NotificationRecord{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.TargetType, &n.TargetID, &n.IsRead, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.CreatedAt = createdAt.Time
		n.UpdatedAt = updatedAt.Time
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks a notification of the user as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, updated_at = ? WHERE id = ? AND user_id = ?",
		formatTime(time.Now()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return errs.NotFound("notification", id)
	}
	return nil
}
