package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
)

// submitted assigns the items to the annotator and works through all of them.
func (h *harness) submitted(ids ...int64) int64 {
	h.t.Helper()
	resp := h.assign(h.annotator, ids...)
	h.work(h.annotator, resp.TaskID, ids...)
	return resp.TaskID
}

func (h *harness) review(dataItemID int64, decision, feedback string, errorTypes ...int64) (*primary.Review, error) {
	return h.reviews.CreateReview(h.as(h.reviewer), primary.CreateReviewRequest{
		DataItemID:   dataItemID,
		Decision:     decision,
		Feedback:     feedback,
		ErrorTypeIDs: errorTypes,
	})
}

func TestCreateReview_EmptyRejectionLeavesItemUntouched(t *testing.T) {
	h := newHarness(t)
	h.submitted(h.items[0])

	tests := []struct {
		name       string
		feedback   string
		errorTypes []int64
		field      string
	}{
		{"no feedback", "", []int64{3}, "feedback"},
		{"blank feedback", "  ", []int64{3}, "feedback"},
		{"no error types", "blurry", nil, "error_type_ids"},
		{"unknown error type", "blurry", []int64{3, 42}, "error_type_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.review(h.items[0], "rejected", tt.feedback, tt.errorTypes...)
			requireKind(t, err, errs.KindValidation)
			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Field)
			assert.Equal(t, "submitted", h.itemStatus(h.items[0]))
		})
	}

	reviews, err := h.reviews.ListReviews(context.Background(), h.items[0])
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestCreateReview_UnknownDecision(t *testing.T) {
	h := newHarness(t)
	h.submitted(h.items[0])

	_, err := h.review(h.items[0], "maybe", "")
	requireKind(t, err, errs.KindValidation)
}

func TestCreateReview_RejectNotifiesAnnotator(t *testing.T) {
	h := newHarness(t)
	taskID := h.submitted(h.items[0], h.items[1])

	rev, err := h.review(h.items[0], "rejected", "blurry", 3, 3)
	require.NoError(t, err)

	assert.Equal(t, "rejected", rev.Decision)
	assert.Equal(t, "blurry", rev.Feedback)
	assert.Equal(t, []int64{3}, rev.ErrorTypeIDs)
	assert.Equal(t, h.reviewer, rev.ReviewerID)
	assert.Equal(t, "rejected", h.itemStatus(h.items[0]))
	assert.Equal(t, "submitted", h.task(taskID).Status)

	notes, err := h.notifications.ListNotifications(h.as(h.annotator), true)
	require.NoError(t, err)
	kinds := make([]string, len(notes))
	for i, n := range notes {
		kinds[i] = n.Kind
	}
	assert.Contains(t, kinds, "item_rejected")
	assert.Equal(t, []string{"rejected"}, h.obs.reviews)
}

func TestCreateReview_ApprovalDropsFeedback(t *testing.T) {
	h := newHarness(t)
	h.submitted(h.items[0])

	rev, err := h.review(h.items[0], "approved", "looks fine", 2)
	require.NoError(t, err)
	assert.Equal(t, "approved", rev.Decision)
	assert.Empty(t, rev.Feedback)
	assert.Empty(t, rev.ErrorTypeIDs)
	assert.Equal(t, "approved", h.itemStatus(h.items[0]))
}

func TestCreateReview_RequiresSubmittedItem(t *testing.T) {
	h := newHarness(t)
	h.assign(h.annotator, h.items[0])

	_, err := h.review(h.items[0], "approved", "")
	requireKind(t, err, errs.KindConflict)

	_, err = h.review(h.items[1], "approved", "")
	requireKind(t, err, errs.KindConflict)

	_, err = h.review(404, "approved", "")
	requireKind(t, err, errs.KindNotFound)
}

func TestCreateReview_ApprovedIsFinal(t *testing.T) {
	h := newHarness(t)
	h.submitted(h.items[0])
	_, err := h.review(h.items[0], "approved", "")
	require.NoError(t, err)

	_, err = h.review(h.items[0], "rejected", "actually no", 1)
	requireKind(t, err, errs.KindConflict)
	assert.Equal(t, "approved", h.itemStatus(h.items[0]))
}

func TestCreateReview_AnnotatorForbidden(t *testing.T) {
	h := newHarness(t)
	h.submitted(h.items[0])

	_, err := h.reviews.CreateReview(h.as(h.annotator), primary.CreateReviewRequest{DataItemID: h.items[0], Decision: "approved"})
	requireKind(t, err, errs.KindForbidden)
	assert.Equal(t, "submitted", h.itemStatus(h.items[0]))
}

func TestCreateReview_CompletesTaskOnceEveryItemIsReviewed(t *testing.T) {
	h := newHarness(t)
	taskID := h.submitted(h.items[0], h.items[1])

	_, err := h.review(h.items[0], "rejected", "blurry", 3)
	require.NoError(t, err)
	assert.Equal(t, "submitted", h.task(taskID).Status)

	_, err = h.review(h.items[1], "approved", "")
	require.NoError(t, err)

	task := h.task(taskID)
	assert.Equal(t, "completed", task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.Contains(t, h.obs.tasks, "submitted->completed")
}

func TestReTask_RejectedItemGoesToNewTask(t *testing.T) {
	h := newHarness(t)
	first := h.submitted(h.items[0], h.items[1])
	_, err := h.review(h.items[0], "rejected", "blurry", 3)
	require.NoError(t, err)

	// The rejected item moves to a new task before its sibling is reviewed.
	second := h.assign(h.other, h.items[0])
	require.Equal(t, 1, second.AssignedCount)
	assert.Equal(t, "assigned", h.itemStatus(h.items[0]))

	_, err = h.review(h.items[1], "approved", "")
	require.NoError(t, err)
	assert.Equal(t, "completed", h.task(first).Status)

	h.work(h.other, second.TaskID, h.items[0])
	assert.Equal(t, "submitted", h.task(second.TaskID).Status)

	_, err = h.review(h.items[0], "approved", "")
	require.NoError(t, err)
	assert.Equal(t, "completed", h.task(second.TaskID).Status)

	history, err := h.reviews.ListReviews(context.Background(), h.items[0])
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "approved", history[0].Decision)
	assert.Equal(t, "rejected", history[1].Decision)

	current, err := h.reviews.CurrentDecision(context.Background(), h.items[0])
	require.NoError(t, err)
	assert.Equal(t, "approved", current.Decision)
}

func TestCurrentDecision_NoReviewIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.reviews.CurrentDecision(context.Background(), h.items[0])
	requireKind(t, err, errs.KindNotFound)
}

func TestListErrorTypes(t *testing.T) {
	h := newHarness(t)

	types, err := h.reviews.ListErrorTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 5)
	assert.Equal(t, "E01", types[0].Code)
	assert.Equal(t, "E03", types[2].Code)
}
