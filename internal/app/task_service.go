package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/dataitem"
	coretask "github.com/example/labelr/internal/core/task"
	"github.com/example/labelr/internal/core/taskitem"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	workflow
}

// NewTaskService creates a new TaskService with injected dependencies.
func NewTaskService(deps Deps) *TaskServiceImpl {
	return &TaskServiceImpl{workflow: newWorkflow(deps)}
}

// AssignTask creates a task for an annotator and assigns the given data items to it.
// Items that cannot be assigned are reported in FailedIDs; the task is created regardless.
func (s *TaskServiceImpl) AssignTask(ctx context.Context, req primary.AssignTaskRequest) (*primary.AssignTaskResponse, error) {
	ctx = correlate(ctx)
	var (
		out primary.AssignTaskResponse
		ob  outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageTasks(actor); !r.Allowed {
			return r.Error()
		}

		project, err := uow.Projects().GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		annotator, err := uow.Users().GetByID(ctx, req.AnnotatorID)
		if errs.IsNotFound(err) {
			return errs.Validation("annotator_id", "user %d does not exist", req.AnnotatorID)
		}
		if err != nil {
			return err
		}
		candidate := access.Actor{ID: annotator.ID, Role: access.Role(annotator.Role), IsActive: annotator.IsActive}
		if r := access.CanBeAssigned(candidate); !r.Allowed {
			return r.Error()
		}
		if req.Deadline != nil && req.Deadline.Before(s.clock()) {
			return errs.Validation("deadline", "deadline %s is in the past", req.Deadline.Format("2006-01-02 15:04"))
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = fmt.Sprintf("%s batch for %s", project.Name, annotator.Username)
		}

		record := &secondary.TaskRecord{
			ProjectID:   project.ID,
			AnnotatorID: annotator.ID,
			AssignedBy:  actor.ID,
			Title:       title,
			Status:      string(coretask.InitialStatus()),
			Deadline:    req.Deadline,
		}
		if err := uow.Tasks().Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		succeeded, failed, err := s.assignItems(ctx, uow, record, req.DataItemIDs, &ob)
		if err != nil {
			return err
		}
		if err := s.recountTask(ctx, uow, record, &ob); err != nil {
			return err
		}

		if err := notify(ctx, uow, annotator.ID, "task_assigned",
			fmt.Sprintf("You were assigned task %d %q with %d items", record.ID, record.Title, len(succeeded)),
			"task", record.ID,
		); err != nil {
			return err
		}
		ob.record(actor.ID, "task.assigned", "task", record.ID, map[string]any{
			"annotator_id": annotator.ID,
			"assigned":     succeeded,
			"failed":       len(failed),
		})

		out = primary.AssignTaskResponse{
			TaskID:        record.ID,
			AssignedCount: len(succeeded),
			SucceededIDs:  succeeded,
			FailedIDs:     failed,
			Task:          recordToTask(record),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return &out, nil
}

// AssignItems adds data items to an existing task.
func (s *TaskServiceImpl) AssignItems(ctx context.Context, taskID int64, dataItemIDs []int64) (*primary.BatchResult, error) {
	ctx = correlate(ctx)
	var (
		out primary.BatchResult
		ob  outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageTasks(actor); !r.Allowed {
			return r.Error()
		}

		record, err := uow.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if r := coretask.CanAddItems(record.ID, coretask.Status(record.Status)); !r.Allowed {
			return r.Error()
		}

		succeeded, failed, err := s.assignItems(ctx, uow, record, dataItemIDs, &ob)
		if err != nil {
			return err
		}
		if err := s.recountTask(ctx, uow, record, &ob); err != nil {
			return err
		}

		if len(succeeded) > 0 {
			if err := notify(ctx, uow, record.AnnotatorID, "task_assigned",
				fmt.Sprintf("%d items were added to task %d %q", len(succeeded), record.ID, record.Title),
				"task", record.ID,
			); err != nil {
				return err
			}
		}
		ob.record(actor.ID, "task.items_added", "task", record.ID, map[string]any{
			"assigned": succeeded,
			"failed":   len(failed),
		})

		out = primary.BatchResult{Count: len(succeeded), SucceededIDs: succeeded, FailedIDs: failed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return &out, nil
}

// RemoveItems takes unstarted data items out of a task and returns them to the queue.
func (s *TaskServiceImpl) RemoveItems(ctx context.Context, taskID int64, dataItemIDs []int64) (*primary.BatchResult, error) {
	ctx = correlate(ctx)
	var (
		out primary.BatchResult
		ob  outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageTasks(actor); !r.Allowed {
			return r.Error()
		}

		record, err := uow.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		ids, failed := dedupe(dataItemIDs)
		var removed []int64
		for _, id := range ids {
			ti, err := uow.TaskItems().GetByTaskAndDataItem(ctx, record.ID, id)
			if errs.IsNotFound(err) {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: fmt.Sprintf("data item %d is not in task %d", id, record.ID)})
				continue
			}
			if err != nil {
				return err
			}
			if r := taskitem.CanRemove(taskitem.Status(ti.Status)); !r.Allowed {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: r.Reason})
				continue
			}

			if err := uow.TaskItems().Delete(ctx, ti.ID); err != nil {
				return err
			}
			item, err := uow.DataItems().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if err := s.advanceDataItem(ctx, uow, item, dataitem.StatusPending, &ob); err != nil {
				return err
			}
			removed = append(removed, id)
		}

		if err := s.recountTask(ctx, uow, record, &ob); err != nil {
			return err
		}
		ob.record(actor.ID, "task.items_removed", "task", record.ID, map[string]any{
			"removed": removed,
			"failed":  len(failed),
		})

		out = primary.BatchResult{Count: len(removed), SucceededIDs: removed, FailedIDs: failed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return &out, nil
}

// StartTaskItem starts work on a task item. The acting user must be the task's annotator.
func (s *TaskServiceImpl) StartTaskItem(ctx context.Context, taskItemID int64) (*primary.ProgressSnapshot, error) {
	return s.work(ctx, taskItemID, "task_item.started", func(ctx context.Context, uow secondary.UnitOfWork, wc taskitem.WorkContext, ti *secondary.TaskItemRecord, record *secondary.TaskRecord, ob *outbox) error {
		if r := taskitem.CanStart(wc); !r.Allowed {
			return r.Error()
		}

		now := s.clock()
		ti.Status = string(taskitem.StatusInProgress)
		ti.StartedAt = taskitem.StampStarted(ti.StartedAt, now)
		if err := uow.TaskItems().Update(ctx, ti); err != nil {
			return err
		}

		item, err := uow.DataItems().GetByID(ctx, ti.DataItemID)
		if err != nil {
			return err
		}
		if err := s.advanceDataItem(ctx, uow, item, dataitem.StatusInProgress, ob); err != nil {
			return err
		}

		from := record.Status
		if next := coretask.NextStatusAfterStart(coretask.Status(from)); string(next) != from {
			record.Status = string(next)
			ob.taskMoved(from, record.Status)
		}
		return s.recountTask(ctx, uow, record, ob)
	})
}

// CompleteTaskItem completes a started task item. Completing the last open
// item submits the task for review.
func (s *TaskServiceImpl) CompleteTaskItem(ctx context.Context, taskItemID int64) (*primary.ProgressSnapshot, error) {
	return s.work(ctx, taskItemID, "task_item.completed", func(ctx context.Context, uow secondary.UnitOfWork, wc taskitem.WorkContext, ti *secondary.TaskItemRecord, record *secondary.TaskRecord, ob *outbox) error {
		if r := taskitem.CanComplete(wc); !r.Allowed {
			return r.Error()
		}

		now := s.clock()
		ti.Status = string(taskitem.StatusCompleted)
		ti.CompletedAt = &now
		if err := uow.TaskItems().Update(ctx, ti); err != nil {
			return err
		}

		item, err := uow.DataItems().GetByID(ctx, ti.DataItemID)
		if err != nil {
			return err
		}
		if err := s.advanceDataItem(ctx, uow, item, dataitem.StatusSubmitted, ob); err != nil {
			return err
		}
		return s.recountTask(ctx, uow, record, ob)
	})
}

type workStep func(ctx context.Context, uow secondary.UnitOfWork, wc taskitem.WorkContext, ti *secondary.TaskItemRecord, record *secondary.TaskRecord, ob *outbox) error

// work loads a task item and its task for an annotator step and returns the progress snapshot.
func (s *TaskServiceImpl) work(ctx context.Context, taskItemID int64, action string, step workStep) (*primary.ProgressSnapshot, error) {
	ctx = correlate(ctx)
	var (
		out primary.ProgressSnapshot
		ob  outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if err := requireActive(actor); err != nil {
			return err
		}

		ti, err := uow.TaskItems().GetByID(ctx, taskItemID)
		if err != nil {
			return err
		}
		record, err := uow.Tasks().GetByID(ctx, ti.TaskID)
		if err != nil {
			return err
		}

		wc := taskitem.WorkContext{
			TaskItemID:      ti.ID,
			Status:          taskitem.Status(ti.Status),
			TaskAnnotatorID: record.AnnotatorID,
			ActorID:         actor.ID,
		}
		if err := step(ctx, uow, wc, ti, record, &ob); err != nil {
			return err
		}

		ob.record(actor.ID, action, "task_item", ti.ID, map[string]any{
			"task_id":      record.ID,
			"data_item_id": ti.DataItemID,
		})
		out = primary.ProgressSnapshot{
			TaskItemID:          ti.ID,
			Status:              ti.Status,
			TaskID:              record.ID,
			TaskStatus:          record.Status,
			TaskProgressPercent: coretask.ProgressPercent(record.CompletedItems, record.TotalItems),
			CompletedItems:      record.CompletedItems,
			TotalItems:          record.TotalItems,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return &out, nil
}

// DeleteTask deletes a task whose items have not been started. Its data items return to pending.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, taskID int64) error {
	ctx = correlate(ctx)
	var ob outbox

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageTasks(actor); !r.Allowed {
			return r.Error()
		}

		record, err := uow.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if r := coretask.CanDeleteTask(record.ID, coretask.Status(record.Status)); !r.Allowed {
			return r.Error()
		}

		items, err := uow.TaskItems().ListByTask(ctx, record.ID)
		if err != nil {
			return err
		}
		released := make([]int64, 0, len(items))
		for _, ti := range items {
			item, err := uow.DataItems().GetByID(ctx, ti.DataItemID)
			if err != nil {
				return err
			}
			if err := s.advanceDataItem(ctx, uow, item, dataitem.StatusPending, &ob); err != nil {
				return err
			}
			released = append(released, item.ID)
		}

		if err := uow.Tasks().Delete(ctx, record.ID); err != nil {
			return err
		}
		ob.record(actor.ID, "task.deleted", "task", record.ID, map[string]any{"released": released})
		return nil
	})
	if err != nil {
		return err
	}

	s.flush(ctx, &ob)
	return nil
}

// GetTask retrieves a task by ID.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID int64) (*primary.Task, error) {
	record, err := s.store.Repos().Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return recordToTask(record), nil
}

// ListTasks lists tasks with optional filters.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]*primary.Task, error) {
	records, err := s.store.Repos().Tasks().List(ctx, secondary.TaskFilters{
		ProjectID:   filters.ProjectID,
		AnnotatorID: filters.AnnotatorID,
		Status:      filters.Status,
		Limit:       filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return mapSlice(records, recordToTask), nil
}

// ListTaskItems lists the items of a task.
func (s *TaskServiceImpl) ListTaskItems(ctx context.Context, taskID int64) ([]*primary.TaskItem, error) {
	repos := s.store.Repos()
	if _, err := repos.Tasks().GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	records, err := repos.TaskItems().ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task items: %w", err)
	}
	return mapSlice(records, recordToTaskItem), nil
}

// assignItems attaches each data item to the task, reporting per-id failures.
// Counters are not touched; callers recount afterwards.
func (s *TaskServiceImpl) assignItems(ctx context.Context, uow secondary.UnitOfWork, record *secondary.TaskRecord, dataItemIDs []int64, ob *outbox) ([]int64, []errs.ItemFailure, error) {
	ids, failed := dedupe(dataItemIDs)
	succeeded := make([]int64, 0, len(ids))
	now := s.clock()

	for _, id := range ids {
		item, err := uow.DataItems().GetByID(ctx, id)
		if errs.IsNotFound(err) {
			failed = append(failed, errs.ItemFailure{ID: id, Reason: "data item not found"})
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if item.ProjectID != record.ProjectID {
			failed = append(failed, errs.ItemFailure{ID: id, Reason: fmt.Sprintf("data item belongs to project %d", item.ProjectID)})
			continue
		}
		if r := dataitem.CanAssign(dataitem.Status(item.Status)); !r.Allowed {
			failed = append(failed, errs.ItemFailure{ID: id, Reason: r.Reason})
			continue
		}

		active, err := uow.TaskItems().FindActiveByDataItem(ctx, id)
		if err == nil {
			failed = append(failed, errs.ItemFailure{ID: id, Reason: fmt.Sprintf("data item is already in active task %d", active.TaskID)})
			continue
		}
		if !errs.IsNotFound(err) {
			return nil, nil, err
		}

		ti := &secondary.TaskItemRecord{
			TaskID:     record.ID,
			DataItemID: id,
			Status:     string(taskitem.StatusAssigned),
			AssignedAt: now,
		}
		if err := uow.TaskItems().Create(ctx, ti); err != nil {
			if errs.IsConflict(err) {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: reason(err)})
				continue
			}
			return nil, nil, err
		}
		if err := s.advanceDataItem(ctx, uow, item, dataitem.StatusAssigned, ob); err != nil {
			return nil, nil, err
		}
		succeeded = append(succeeded, id)
	}
	return succeeded, failed, nil
}

// recountTask derives the counters from the task items, applies the
// submission rule and persists the task.
func (w workflow) recountTask(ctx context.Context, uow secondary.UnitOfWork, record *secondary.TaskRecord, ob *outbox) error {
	items, err := uow.TaskItems().ListByTask(ctx, record.ID)
	if err != nil {
		return err
	}
	statuses := make([]taskitem.Status, len(items))
	for i, ti := range items {
		statuses[i] = taskitem.Status(ti.Status)
	}
	c := coretask.Recount(statuses)
	if r := coretask.CheckCounters(c); !r.Allowed {
		return r.Error()
	}
	record.TotalItems = c.Total
	record.CompletedItems = c.Completed

	from := record.Status
	result := coretask.NextStatusAfterRecount(coretask.Status(from), c, w.clock())
	if string(result.NewStatus) != from {
		record.Status = string(result.NewStatus)
		record.SubmittedAt = result.SubmittedAt
		ob.taskMoved(from, record.Status)
	}
	return uow.Tasks().Update(ctx, record)
}

var _ primary.TaskService = (*TaskServiceImpl)(nil)
