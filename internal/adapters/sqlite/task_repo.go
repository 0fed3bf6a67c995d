package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// TaskRepository implements secondary.TaskRepository with SQLite.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// scanTask scans a task row into a TaskRecord.
func scanTask(s scanner) (*secondary.TaskRecord, error) {
	var (
		deadline    dbTime
		submittedAt dbTime
		completedAt dbTime
		createdAt   dbTime
		updatedAt   dbTime
	)

	record := &secondary.TaskRecord{}
	err := s.Scan(
		&record.ID, &record.ProjectID, &record.AnnotatorID, &record.AssignedBy, &record.Title, &record.Status,
		&deadline, &record.TotalItems, &record.CompletedItems, &submittedAt, &completedAt,
		&record.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Deadline = deadline.ptr()
	record.SubmittedAt = submittedAt.ptr()
	record.CompletedAt = completedAt.ptr()
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

const taskSelectCols = "id, project_id, annotator_id, assigned_by, title, status, deadline, total_items, completed_items, submitted_at, completed_at, version, created_at, updated_at"

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, task *secondary.TaskRecord) error {
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = task.CreatedAt
	task.Version = 1

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO annotation_tasks (project_id, annotator_id, assigned_by, title, status, deadline, total_items, completed_items, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		task.ProjectID, task.AnnotatorID, task.AssignedBy, task.Title, task.Status, nullableTime(task.Deadline),
		task.TotalItems, task.CompletedItems, formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create task")
	}
	task.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	return nil
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*secondary.TaskRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskSelectCols+" FROM annotation_tasks WHERE id = ?", id)
	record, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return record, nil
}

// List retrieves tasks matching the given filters.
func (r *TaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	query := "SELECT " + taskSelectCols + " FROM annotation_tasks WHERE 1=1"
	args := []any{}

	if filters.ProjectID != 0 {
		query += " AND project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.AnnotatorID != 0 {
		query += " AND annotator_id = ?"
		args = append(args, filters.AnnotatorID)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.TaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}
	return tasks, rows.Err()
}

// Update stores status, counters and timestamps if the version still matches.
func (r *TaskRepository) Update(ctx context.Context, task *secondary.TaskRecord) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE annotation_tasks
		 SET title = ?, status = ?, deadline = ?, total_items = ?, completed_items = ?,
		     submitted_at = ?, completed_at = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		task.Title, task.Status, nullableTime(task.Deadline), task.TotalItems, task.CompletedItems,
		nullableTime(task.SubmittedAt), nullableTime(task.CompletedAt), formatTime(now),
		task.ID, task.Version,
	)
	if err != nil {
		return translate(err, "failed to update task %d", task.ID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return versionMiss(ctx, r.db, "annotation_tasks", "task", task.ID)
	}

	task.Version++
	task.UpdatedAt = now
	return nil
}

// Delete removes a task. Its task items go with it.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM annotation_tasks WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete task %d", id)
	}
	return requireAffected(result, "task", id)
}

// CountByStatus returns the number of tasks per status.
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "annotation_tasks")
}
