package app_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/example/labelr/internal/adapters/activity"
	"github.com/example/labelr/internal/adapters/filesystem"
	"github.com/example/labelr/internal/adapters/sqlite"
	"github.com/example/labelr/internal/app"
	"github.com/example/labelr/internal/ctxutil"
	"github.com/example/labelr/internal/db"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

var baseTime = time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)

// recordingObserver collects committed transitions.
type recordingObserver struct {
	dataItems []string
	tasks     []string
	reviews   []string
}

func (o *recordingObserver) DataItemTransition(from, to string) {
	o.dataItems = append(o.dataItems, from+"->"+to)
}
func (o *recordingObserver) TaskTransition(from, to string) { o.tasks = append(o.tasks, from+"->"+to) }
func (o *recordingObserver) ReviewRecorded(decision string) { o.reviews = append(o.reviews, decision) }

// harness wires every service to a migrated in-memory database and an
// in-memory file store. It bootstraps one user per role, a project with its
// dataset, a bbox label and three uploaded items.
type harness struct {
	t     *testing.T
	store *sqlite.Store
	files *filesystem.FileStorage
	obs   *recordingObserver
	tick  int

	users         *app.UserServiceImpl
	projects      *app.ProjectServiceImpl
	datasets      *app.DatasetServiceImpl
	dataItems     *app.DataItemServiceImpl
	tasks         *app.TaskServiceImpl
	annotations   *app.AnnotationServiceImpl
	reviews       *app.ReviewServiceImpl
	notifications *app.NotificationServiceImpl
	activityLog   *app.ActivityServiceImpl
	stats         *app.StatsServiceImpl

	admin, manager, annotator, other, reviewer int64

	projectID, datasetID, labelID int64
	items                         []int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn, err := db.OpenInMemory(db.DriverCGO)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h := &harness{
		t:     t,
		store: sqlite.NewStore(conn),
		files: filesystem.NewMemoryFileStorage(),
		obs:   &recordingObserver{},
	}
	deps := app.Deps{
		Store:    h.store,
		Files:    h.files,
		Activity: activity.NewStoreSink(h.store.Repos().Activity()),
		Observer: h.obs,
		Logger:   zerolog.Nop(),
		Now:      h.now,
	}
	h.users = app.NewUserService(deps)
	h.projects = app.NewProjectService(deps)
	h.datasets = app.NewDatasetService(deps)
	h.dataItems = app.NewDataItemService(deps)
	h.tasks = app.NewTaskService(deps)
	h.annotations = app.NewAnnotationService(deps)
	h.reviews = app.NewReviewService(deps)
	h.notifications = app.NewNotificationService(deps)
	h.activityLog = app.NewActivityService(deps)
	h.stats = app.NewStatsService(deps)

	ctx := context.Background()
	admin, err := h.users.Bootstrap(ctx, primary.CreateUserRequest{Username: "root", Email: "root@example.com"})
	require.NoError(t, err)
	h.admin = admin.ID

	h.manager = h.createUser("mia", "manager")
	h.annotator = h.createUser("ann", "annotator")
	h.other = h.createUser("otto", "annotator")
	h.reviewer = h.createUser("rex", "reviewer")

	project, err := h.projects.CreateProject(h.as(h.manager), primary.CreateProjectRequest{Name: "Streets"})
	require.NoError(t, err)
	h.projectID = project.ID

	ds, err := h.datasets.GetDatasetByProject(ctx, project.ID)
	require.NoError(t, err)
	h.datasetID = ds.ID

	label, err := h.projects.CreateLabel(h.as(h.manager), primary.CreateLabelRequest{ProjectID: project.ID, Name: "car", Type: "bbox"})
	require.NoError(t, err)
	h.labelID = label.ID

	for i := 1; i <= 3; i++ {
		h.items = append(h.items, h.upload(fmt.Sprintf("img%d.png", i)))
	}
	return h
}

// now advances one second per call so timestamps are strictly ordered.
func (h *harness) now() time.Time {
	h.tick++
	return baseTime.Add(time.Duration(h.tick) * time.Second)
}

func (h *harness) as(userID int64) context.Context {
	return ctxutil.WithActorID(context.Background(), userID)
}

func (h *harness) createUser(username, role string) int64 {
	h.t.Helper()
	u, err := h.users.CreateUser(h.as(h.admin), primary.CreateUserRequest{Username: username, Role: role})
	require.NoError(h.t, err)
	return u.ID
}

func (h *harness) upload(name string) int64 {
	h.t.Helper()
	item, err := h.datasets.AddItem(h.as(h.manager), primary.AddItemRequest{
		DatasetID: h.datasetID,
		FileName:  name,
		Content:   strings.NewReader("fake image bytes for " + name),
	})
	require.NoError(h.t, err)
	return item.ID
}

// assign creates a task for the annotator holding the given items.
func (h *harness) assign(annotatorID int64, ids ...int64) *primary.AssignTaskResponse {
	h.t.Helper()
	resp, err := h.tasks.AssignTask(h.as(h.manager), primary.AssignTaskRequest{
		ProjectID:   h.projectID,
		AnnotatorID: annotatorID,
		DataItemIDs: ids,
	})
	require.NoError(h.t, err)
	return resp
}

// taskItem returns the task item linking the task and the data item.
func (h *harness) taskItem(taskID, dataItemID int64) *primary.TaskItem {
	h.t.Helper()
	items, err := h.tasks.ListTaskItems(context.Background(), taskID)
	require.NoError(h.t, err)
	for _, ti := range items {
		if ti.DataItemID == dataItemID {
			return ti
		}
	}
	h.t.Fatalf("data item %d is not in task %d", dataItemID, taskID)
	return nil
}

// work starts and completes the task item of each data item as the annotator.
func (h *harness) work(annotatorID, taskID int64, ids ...int64) *primary.ProgressSnapshot {
	h.t.Helper()
	var snap *primary.ProgressSnapshot
	for _, id := range ids {
		ti := h.taskItem(taskID, id)
		_, err := h.tasks.StartTaskItem(h.as(annotatorID), ti.ID)
		require.NoError(h.t, err)
		snap, err = h.tasks.CompleteTaskItem(h.as(annotatorID), ti.ID)
		require.NoError(h.t, err)
	}
	return snap
}

func (h *harness) itemStatus(id int64) string {
	h.t.Helper()
	item, err := h.dataItems.GetDataItem(context.Background(), id)
	require.NoError(h.t, err)
	return item.Status
}

func (h *harness) task(id int64) *primary.Task {
	h.t.Helper()
	task, err := h.tasks.GetTask(context.Background(), id)
	require.NoError(h.t, err)
	return task
}

// requireCounters checks the stored counters against the task items.
func (h *harness) requireCounters(taskID int64) {
	h.t.Helper()
	task := h.task(taskID)
	items, err := h.tasks.ListTaskItems(context.Background(), taskID)
	require.NoError(h.t, err)
	completed := 0
	for _, ti := range items {
		if ti.Status == "completed" {
			completed++
		}
	}
	require.Equal(h.t, len(items), task.TotalItems, "total_items")
	require.Equal(h.t, completed, task.CompletedItems, "completed_items")
	require.LessOrEqual(h.t, task.CompletedItems, task.TotalItems)
}

func requireKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, errs.KindOf(err), "unexpected error: %v", err)
}

func failedIDs(failures []errs.ItemFailure) []int64 {
	ids := make([]int64, len(failures))
	for i, f := range failures {
		ids[i] = f.ID
	}
	return ids
}

var _ secondary.WorkflowObserver = (*recordingObserver)(nil)
