// Package primary defines the primary ports (driving adapters) of the application.
// The acting user of every call is taken from the context (see ctxutil).
package primary

import (
	"context"
	"time"

	"github.com/example/labelr/internal/errs"
)

// TaskService defines the primary port for annotation task operations.
type TaskService interface {
	// AssignTask creates a task for an annotator and assigns the given data items to it.
	AssignTask(ctx context.Context, req AssignTaskRequest) (*AssignTaskResponse, error)

	// AssignItems adds data items to an existing task.
	AssignItems(ctx context.Context, taskID int64, dataItemIDs []int64) (*BatchResult, error)

	// RemoveItems takes unstarted data items out of a task.
	RemoveItems(ctx context.Context, taskID int64, dataItemIDs []int64) (*BatchResult, error)

	// StartTaskItem starts work on a task item.
	StartTaskItem(ctx context.Context, taskItemID int64) (*ProgressSnapshot, error)

	// CompleteTaskItem completes a started task item.
	CompleteTaskItem(ctx context.Context, taskItemID int64) (*ProgressSnapshot, error)

	// DeleteTask deletes a task whose items have not been started.
	DeleteTask(ctx context.Context, taskID int64) error

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID int64) (*Task, error)

	// ListTasks lists tasks with optional filters.
	ListTasks(ctx context.Context, filters TaskFilters) ([]*Task, error)

	// ListTaskItems lists the items of a task.
	ListTaskItems(ctx context.Context, taskID int64) ([]*TaskItem, error)
}

// AssignTaskRequest contains parameters for creating a task.
type AssignTaskRequest struct {
	ProjectID   int64
	AnnotatorID int64
	DataItemIDs []int64
	Title       string     // Optional, defaulted from the project
	Deadline    *time.Time // Optional
}

// AssignTaskResponse contains the result of creating a task.
type AssignTaskResponse struct {
	TaskID        int64
	AssignedCount int
	SucceededIDs  []int64
	FailedIDs     []errs.ItemFailure
	Task          *Task
}

// BatchResult reports a partial-success batch operation.
type BatchResult struct {
	Count        int
	SucceededIDs []int64
	FailedIDs    []errs.ItemFailure
}

// ProgressSnapshot is returned by the annotator work operations.
type ProgressSnapshot struct {
	TaskItemID          int64
	Status              string
	TaskID              int64
	TaskStatus          string
	TaskProgressPercent float64
	CompletedItems      int
	TotalItems          int
}

// Task represents an annotation task at the port boundary.
type Task struct {
	ID              int64
	ProjectID       int64
	AnnotatorID     int64
	AssignedBy      int64
	Title           string
	Status          string
	Deadline        *time.Time
	TotalItems      int
	CompletedItems  int
	ProgressPercent float64
	SubmittedAt     *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskItem represents a task item at the port boundary.
type TaskItem struct {
	ID          int64
	TaskID      int64
	DataItemID  int64
	Status      string
	AssignedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// TaskFilters contains filter options for listing tasks.
type TaskFilters struct {
	ProjectID   int64
	AnnotatorID int64
	Status      string
	Limit       int
}
