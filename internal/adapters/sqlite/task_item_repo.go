package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// TaskItemRepository implements secondary.TaskItemRepository with SQLite.
type TaskItemRepository struct {
	db DBTX
}

// NewTaskItemRepository creates a new SQLite task item repository.
func NewTaskItemRepository(db DBTX) *TaskItemRepository {
	return &TaskItemRepository{db: db}
}

const taskItemSelectCols = "id, task_id, data_item_id, status, assigned_at, started_at, completed_at, version, created_at, updated_at"

func scanTaskItem(s scanner) (*secondary.TaskItemRecord, error) {
	var assignedAt, startedAt, completedAt, createdAt, updatedAt dbTime
	record := &secondary.TaskItemRecord{}
	err := s.Scan(
		&record.ID, &record.TaskID, &record.DataItemID, &record.Status,
		&assignedAt, &startedAt, &completedAt, &record.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.AssignedAt = assignedAt.Time
	record.StartedAt = startedAt.ptr()
	record.CompletedAt = completedAt.ptr()
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a new task item.
func (r *TaskItemRepository) Create(ctx context.Context, item *secondary.TaskItemRecord) error {
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	if item.AssignedAt.IsZero() {
		item.AssignedAt = item.CreatedAt
	}
	item.Version = 1

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO task_items (task_id, data_item_id, status, assigned_at, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		item.TaskID, item.DataItemID, item.Status, formatTime(item.AssignedAt),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to add data item %d to task %d", item.DataItemID, item.TaskID)
	}
	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task item id: %w", err)
	}
	return nil
}

func (r *TaskItemRepository) getOne(ctx context.Context, notFound error, where string, args ...any) (*secondary.TaskItemRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskItemSelectCols+" FROM task_items WHERE "+where, args...)
	record, err := scanTaskItem(row)
	if err == sql.ErrNoRows {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task item: %w", err)
	}
	return record, nil
}

// GetByID retrieves a task item by its ID.
func (r *TaskItemRepository) GetByID(ctx context.Context, id int64) (*secondary.TaskItemRecord, error) {
	return r.getOne(ctx, errs.NotFound("task item", id), "id = ?", id)
}

// GetByTaskAndDataItem retrieves the task item linking a task and a data item.
func (r *TaskItemRepository) GetByTaskAndDataItem(ctx context.Context, taskID, dataItemID int64) (*secondary.TaskItemRecord, error) {
	return r.getOne(ctx,
		errs.NotFoundf("task item", "data item %d is not part of task %d", dataItemID, taskID),
		"task_id = ? AND data_item_id = ?", taskID, dataItemID,
	)
}

// FindActiveByDataItem returns the non-completed task item of a data item.
func (r *TaskItemRepository) FindActiveByDataItem(ctx context.Context, dataItemID int64) (*secondary.TaskItemRecord, error) {
	return r.getOne(ctx,
		errs.NotFoundf("task item", "data item %d is not in an active task", dataItemID),
		"data_item_id = ? AND status <> 'completed'", dataItemID,
	)
}

// FindLatestByDataItem returns the most recent task item of a data item.
func (r *TaskItemRepository) FindLatestByDataItem(ctx context.Context, dataItemID int64) (*secondary.TaskItemRecord, error) {
	return r.getOne(ctx,
		errs.NotFoundf("task item", "data item %d was never assigned", dataItemID),
		"data_item_id = ? ORDER BY assigned_at DESC, id DESC LIMIT 1", dataItemID,
	)
}

// ListByTask retrieves the task items of a task.
func (r *TaskItemRepository) ListByTask(ctx context.Context, taskID int64) ([]*secondary.TaskItemRecord, error) {
	return r.list(ctx, "task_id = ?", taskID)
}

// ListByDataItem retrieves every task item of a data item, completed ones included.
func (r *TaskItemRepository) ListByDataItem(ctx context.Context, dataItemID int64) ([]*secondary.TaskItemRecord, error) {
	return r.list(ctx, "data_item_id = ?", dataItemID)
}

func (r *TaskItemRepository) list(ctx context.Context, where string, arg int64) ([]*secondary.TaskItemRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+taskItemSelectCols+" FROM task_items WHERE "+where+" ORDER BY id ASC", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list task items: %w", err)
	}
	defer rows.Close()

	var items []*secondary.TaskItemRecord
	for rows.Next() {
		record, err := scanTaskItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task item: %w", err)
		}
		items = append(items, record)
	}
	return items, rows.Err()
}

// Update stores status and timestamps if the version still matches.
func (r *TaskItemRepository) Update(ctx context.Context, item *secondary.TaskItemRecord) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE task_items SET status = ?, started_at = ?, completed_at = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		item.Status, nullableTime(item.StartedAt), nullableTime(item.CompletedAt), formatTime(now),
		item.ID, item.Version,
	)
	if err != nil {
		return translate(err, "failed to update task item %d", item.ID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return versionMiss(ctx, r.db, "task_items", "task item", item.ID)
	}

	item.Version++
	item.UpdatedAt = now
	return nil
}

// Delete removes a task item.
func (r *TaskItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM task_items WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete task item %d", id)
	}
	return requireAffected(result, "task item", id)
}
