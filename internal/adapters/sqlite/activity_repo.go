package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/labelr/internal/ports/secondary"
)

// ActivityRepository implements secondary.ActivityRepository with SQLite.
type ActivityRepository struct {
	db DBTX
}

// NewActivityRepository creates a new SQLite activity log repository.
func NewActivityRepository(db DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create persists a new activity log entry.
func (r *ActivityRepository) Create(ctx context.Context, rec *secondary.ActivityRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, action, target_type, target_id, details, correlation_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Action, rec.TargetType, rec.TargetID, rec.Details, rec.CorrelationID, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	rec.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity log id: %w", err)
	}
	return nil
}

// List retrieves log entries matching the given filters, newest first.
func (r *ActivityRepository) List(ctx context.Context, filters secondary.ActivityFilters) ([]*secondary.ActivityRecord, error) {
	query := `SELECT id, user_id, action, target_type, target_id, details, correlation_id, created_at FROM activity_logs WHERE 1=1`
	args := []any{}

	if filters.UserID != 0 {
		query += " AND user_id = ?"
		args = append(args, filters.UserID)
	}
	if filters.TargetType != "" {
		query += " AND target_type = ?"
		args = append(args, filters.TargetType)
	}
	if filters.TargetID != 0 {
		query += " AND target_id = ?"
		args = append(args, filters.TargetID)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*secondary.ActivityRecord
	for rows.Next() {
		var createdAt dbTime
		rec := &secondary.ActivityRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Action, &rec.TargetType, &rec.TargetID, &rec.Details, &rec.CorrelationID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		rec.CreatedAt = createdAt.Time
		logs = append(logs, rec)
	}
	return logs, rows.Err()
}
