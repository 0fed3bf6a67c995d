package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
)

func TestAssignTask_AssignsSubsetAndNotifies(t *testing.T) {
	h := newHarness(t)

	resp := h.assign(h.annotator, h.items[0], h.items[1])

	assert.Equal(t, 2, resp.AssignedCount)
	assert.Equal(t, []int64{h.items[0], h.items[1]}, resp.SucceededIDs)
	assert.Empty(t, resp.FailedIDs)
	assert.Equal(t, "assigned", resp.Task.Status)
	assert.Equal(t, 2, resp.Task.TotalItems)
	assert.Equal(t, 0, resp.Task.CompletedItems)
	assert.Equal(t, "Streets batch for ann", resp.Task.Title)

	assert.Equal(t, "assigned", h.itemStatus(h.items[0]))
	assert.Equal(t, "assigned", h.itemStatus(h.items[1]))
	assert.Equal(t, "pending", h.itemStatus(h.items[2]))
	h.requireCounters(resp.TaskID)

	notes, err := h.notifications.ListNotifications(h.as(h.annotator), true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "task_assigned", notes[0].Kind)
	assert.Equal(t, resp.TaskID, notes[0].TargetID)
}

func TestAssignTask_PartialFailures(t *testing.T) {
	h := newHarness(t)
	first := h.assign(h.annotator, h.items[0])

	resp, err := h.tasks.AssignTask(h.as(h.manager), primary.AssignTaskRequest{
		ProjectID:   h.projectID,
		AnnotatorID: h.other,
		DataItemIDs: []int64{h.items[0], h.items[1], h.items[1], 999},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{h.items[1]}, resp.SucceededIDs)
	assert.ElementsMatch(t, []int64{h.items[0], h.items[1], 999}, failedIDs(resp.FailedIDs))
	assert.Equal(t, 1, resp.Task.TotalItems)
	h.requireCounters(first.TaskID)
	h.requireCounters(resp.TaskID)
}

func TestAssignTask_ItemFromAnotherProject(t *testing.T) {
	h := newHarness(t)
	other, err := h.projects.CreateProject(h.as(h.manager), primary.CreateProjectRequest{Name: "Fields"})
	require.NoError(t, err)

	resp, err := h.tasks.AssignTask(h.as(h.manager), primary.AssignTaskRequest{
		ProjectID:   other.ID,
		AnnotatorID: h.annotator,
		DataItemIDs: []int64{h.items[0]},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.AssignedCount)
	assert.Equal(t, []int64{h.items[0]}, failedIDs(resp.FailedIDs))
	assert.Equal(t, "pending", h.itemStatus(h.items[0]))
}

func TestAssignTask_Rejections(t *testing.T) {
	h := newHarness(t)
	past := baseTime.Add(-time.Hour)

	tests := []struct {
		name  string
		actor int64
		req   primary.AssignTaskRequest
		kind  errs.Kind
		field string
	}{
		{name: "annotator cannot assign", actor: h.annotator, req: primary.AssignTaskRequest{AnnotatorID: h.annotator}, kind: errs.KindForbidden},
		{name: "no acting user", actor: 0, req: primary.AssignTaskRequest{AnnotatorID: h.annotator}, kind: errs.KindUnauthorized},
		{name: "unknown project", actor: h.manager, req: primary.AssignTaskRequest{ProjectID: 404, AnnotatorID: h.annotator}, kind: errs.KindNotFound},
		{name: "unknown annotator", actor: h.manager, req: primary.AssignTaskRequest{AnnotatorID: 404}, kind: errs.KindValidation, field: "annotator_id"},
		{name: "reviewer is not an annotator", actor: h.manager, req: primary.AssignTaskRequest{AnnotatorID: h.reviewer}, kind: errs.KindValidation, field: "annotator_id"},
		{name: "deadline in the past", actor: h.manager, req: primary.AssignTaskRequest{AnnotatorID: h.annotator, Deadline: &past}, kind: errs.KindValidation, field: "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.DataItemIDs = []int64{h.items[0]}
			if req.ProjectID == 0 {
				req.ProjectID = h.projectID
			}
			_, err := h.tasks.AssignTask(h.as(tt.actor), req)
			requireKind(t, err, tt.kind)
			if tt.field != "" {
				var e *errs.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.field, e.Field)
			}
			assert.Equal(t, "pending", h.itemStatus(h.items[0]))
		})
	}
}

func TestAssignTask_DeactivatedAnnotator(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.users.DeactivateUser(h.as(h.admin), h.other))

	_, err := h.tasks.AssignTask(h.as(h.manager), primary.AssignTaskRequest{
		ProjectID: h.projectID, AnnotatorID: h.other, DataItemIDs: []int64{h.items[0]},
	})
	requireKind(t, err, errs.KindValidation)
}

func TestCompleteTaskItem_BeforeStartIsConflict(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])
	ti := h.taskItem(resp.TaskID, h.items[0])

	_, err := h.tasks.CompleteTaskItem(h.as(h.annotator), ti.ID)
	requireKind(t, err, errs.KindConflict)

	assert.Equal(t, "assigned", h.itemStatus(h.items[0]))
	assert.Equal(t, "assigned", h.taskItem(resp.TaskID, h.items[0]).Status)
}

func TestStartTaskItem_OtherAnnotatorForbidden(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])
	ti := h.taskItem(resp.TaskID, h.items[0])

	_, err := h.tasks.StartTaskItem(h.as(h.other), ti.ID)
	requireKind(t, err, errs.KindForbidden)
}

func TestStartTaskItem_MovesTaskAndItem(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0], h.items[1])
	ti := h.taskItem(resp.TaskID, h.items[0])

	snap, err := h.tasks.StartTaskItem(h.as(h.annotator), ti.ID)
	require.NoError(t, err)

	assert.Equal(t, "in_progress", snap.Status)
	assert.Equal(t, "in_progress", snap.TaskStatus)
	assert.Equal(t, 0.0, snap.TaskProgressPercent)
	assert.Equal(t, "in_progress", h.itemStatus(h.items[0]))
	assert.NotNil(t, h.taskItem(resp.TaskID, h.items[0]).StartedAt)

	_, err = h.tasks.StartTaskItem(h.as(h.annotator), ti.ID)
	requireKind(t, err, errs.KindConflict)
}

func TestCompleteTaskItem_LastItemSubmitsTask(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0], h.items[1])

	snap := h.work(h.annotator, resp.TaskID, h.items[0])
	assert.Equal(t, "in_progress", snap.TaskStatus)
	assert.Equal(t, 1, snap.CompletedItems)
	assert.Equal(t, 50.0, snap.TaskProgressPercent)
	assert.Nil(t, h.task(resp.TaskID).SubmittedAt)

	snap = h.work(h.annotator, resp.TaskID, h.items[1])
	assert.Equal(t, "submitted", snap.TaskStatus)
	assert.Equal(t, 100.0, snap.TaskProgressPercent)

	task := h.task(resp.TaskID)
	assert.Equal(t, "submitted", task.Status)
	require.NotNil(t, task.SubmittedAt)
	assert.Equal(t, "submitted", h.itemStatus(h.items[0]))
	assert.Equal(t, "submitted", h.itemStatus(h.items[1]))
	h.requireCounters(resp.TaskID)

	assert.Contains(t, h.obs.tasks, "assigned->in_progress")
	assert.Contains(t, h.obs.tasks, "in_progress->submitted")
}

func TestAssignItems(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])

	res, err := h.tasks.AssignItems(h.as(h.manager), resp.TaskID, []int64{h.items[1], h.items[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []int64{h.items[1]}, res.SucceededIDs)
	assert.Equal(t, []int64{h.items[0]}, failedIDs(res.FailedIDs))
	assert.Equal(t, 2, h.task(resp.TaskID).TotalItems)
	h.requireCounters(resp.TaskID)
}

func TestAssignItems_SubmittedTaskIsConflict(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])
	h.work(h.annotator, resp.TaskID, h.items[0])

	_, err := h.tasks.AssignItems(h.as(h.manager), resp.TaskID, []int64{h.items[1]})
	requireKind(t, err, errs.KindConflict)
	assert.Equal(t, "pending", h.itemStatus(h.items[1]))
}

func TestRemoveItems_CompletedItemStays(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])
	h.work(h.annotator, resp.TaskID, h.items[0])

	res, err := h.tasks.RemoveItems(h.as(h.manager), resp.TaskID, []int64{h.items[0]})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, []int64{h.items[0]}, failedIDs(res.FailedIDs))
	assert.Equal(t, "submitted", h.task(resp.TaskID).Status)
}

func TestRemoveItems_ReleasesUnstartedItems(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0], h.items[1], h.items[2])
	ti := h.taskItem(resp.TaskID, h.items[2])
	_, err := h.tasks.StartTaskItem(h.as(h.annotator), ti.ID)
	require.NoError(t, err)

	res, err := h.tasks.RemoveItems(h.as(h.manager), resp.TaskID, []int64{h.items[0], h.items[2], 999})
	require.NoError(t, err)

	assert.Equal(t, []int64{h.items[0]}, res.SucceededIDs)
	assert.ElementsMatch(t, []int64{h.items[2], 999}, failedIDs(res.FailedIDs))
	assert.Equal(t, "pending", h.itemStatus(h.items[0]))
	assert.Equal(t, "in_progress", h.itemStatus(h.items[2]))
	assert.Equal(t, 2, h.task(resp.TaskID).TotalItems)
	h.requireCounters(resp.TaskID)
}

func TestRemoveItems_LastOpenItemSubmitsTask(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0], h.items[1])
	h.work(h.annotator, resp.TaskID, h.items[0])

	_, err := h.tasks.RemoveItems(h.as(h.manager), resp.TaskID, []int64{h.items[1]})
	require.NoError(t, err)

	task := h.task(resp.TaskID)
	assert.Equal(t, "submitted", task.Status)
	assert.Equal(t, 1, task.TotalItems)
	assert.Equal(t, 1, task.CompletedItems)
}

func TestDeleteTask(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0], h.items[1])

	require.NoError(t, h.tasks.DeleteTask(h.as(h.manager), resp.TaskID))

	_, err := h.tasks.GetTask(context.Background(), resp.TaskID)
	requireKind(t, err, errs.KindNotFound)
	assert.Equal(t, "pending", h.itemStatus(h.items[0]))
	assert.Equal(t, "pending", h.itemStatus(h.items[1]))

	again := h.assign(h.other, h.items[0])
	assert.Equal(t, 1, again.AssignedCount)
}

func TestDeleteTask_StartedTaskIsConflict(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])
	ti := h.taskItem(resp.TaskID, h.items[0])
	_, err := h.tasks.StartTaskItem(h.as(h.annotator), ti.ID)
	require.NoError(t, err)

	err = h.tasks.DeleteTask(h.as(h.manager), resp.TaskID)
	requireKind(t, err, errs.KindConflict)
	assert.Equal(t, "in_progress", h.itemStatus(h.items[0]))
}

func TestListTasks_Filters(t *testing.T) {
	h := newHarness(t)
	h.assign(h.annotator, h.items[0])
	h.assign(h.other, h.items[1])

	mine, err := h.tasks.ListTasks(context.Background(), primary.TaskFilters{AnnotatorID: h.annotator})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, h.annotator, mine[0].AnnotatorID)

	all, err := h.tasks.ListTasks(context.Background(), primary.TaskFilters{ProjectID: h.projectID, Status: "assigned"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.tasks.ListTaskItems(context.Background(), 404)
	requireKind(t, err, errs.KindNotFound)
}

func TestTaskActivityIsCorrelated(t *testing.T) {
	h := newHarness(t)
	resp := h.assign(h.annotator, h.items[0])

	entries, err := h.activityLog.ListActivity(context.Background(), primary.ActivityFilters{TargetType: "task", TargetID: resp.TaskID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task.assigned", entries[0].Action)
	assert.Equal(t, h.manager, entries[0].UserID)
	assert.NotEmpty(t, entries[0].CorrelationID)
}
