package app

import (
	"context"
	"fmt"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/dataitem"
	"github.com/example/labelr/internal/core/review"
	coretask "github.com/example/labelr/internal/core/task"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// ReviewServiceImpl implements the ReviewService interface.
type ReviewServiceImpl struct {
	workflow
}

// NewReviewService creates a new ReviewService with injected dependencies.
func NewReviewService(deps Deps) *ReviewServiceImpl {
	return &ReviewServiceImpl{workflow: newWorkflow(deps)}
}

// CreateReview records a decision on a submitted data item. The payload is
// validated before any write, so a rejected request leaves the item untouched.
func (s *ReviewServiceImpl) CreateReview(ctx context.Context, req primary.CreateReviewRequest) (*primary.Review, error) {
	ctx = correlate(ctx)
	var (
		out *secondary.ReviewRecord
		ob  outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanReview(actor); !r.Allowed {
			return r.Error()
		}

		decision, err := review.ParseDecision(req.Decision)
		if err != nil {
			return err
		}
		known, err := s.knownErrorTypes(ctx, uow)
		if err != nil {
			return err
		}
		if r := review.Validate(review.ValidateContext{
			Decision:          decision,
			Feedback:          req.Feedback,
			ErrorTypeIDs:      req.ErrorTypeIDs,
			KnownErrorTypeIDs: known,
		}); !r.Allowed {
			return r.Error()
		}

		item, err := uow.DataItems().GetByID(ctx, req.DataItemID)
		if err != nil {
			return err
		}
		target := dataitem.StatusApproved
		if decision == review.DecisionRejected {
			target = dataitem.StatusRejected
		}
		if r := dataitem.CanTransition(dataitem.Status(item.Status), target); !r.Allowed {
			return r.Error()
		}

		norm := review.Normalize(decision, req.Feedback, req.ErrorTypeIDs)
		rec := &secondary.ReviewRecord{
			DataItemID:   item.ID,
			ReviewerID:   actor.ID,
			Decision:     string(decision),
			Feedback:     norm.Feedback,
			ErrorTypeIDs: norm.ErrorTypeIDs,
		}
		rec.CreatedAt = s.clock()
		if err := uow.Reviews().Create(ctx, rec); err != nil {
			return err
		}
		if err := s.advanceDataItem(ctx, uow, item, target, &ob); err != nil {
			return err
		}
		ob.reviewed(rec.Decision)

		if err := s.settleTask(ctx, uow, item, rec, &ob); err != nil {
			return err
		}

		ob.record(actor.ID, "review."+rec.Decision, "data_item", item.ID, map[string]any{
			"review_id":      rec.ID,
			"error_type_ids": rec.ErrorTypeIDs,
		})
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToReview(out), nil
}

// settleTask completes the item's task once every item carries a decision and
// tells the annotator about a rejection.
func (s *ReviewServiceImpl) settleTask(ctx context.Context, uow secondary.UnitOfWork, item *secondary.DataItemRecord, rec *secondary.ReviewRecord, ob *outbox) error {
	ti, err := uow.TaskItems().FindLatestByDataItem(ctx, item.ID)
	if errs.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := uow.Tasks().GetByID(ctx, ti.TaskID)
	if err != nil {
		return err
	}

	if rec.Decision == string(review.DecisionRejected) {
		if err := notify(ctx, uow, t.AnnotatorID, "item_rejected",
			fmt.Sprintf("Data item %d in task %d was rejected: %s", item.ID, t.ID, rec.Feedback),
			"data_item", item.ID,
		); err != nil {
			return err
		}
	}

	reviewed, total, err := reviewProgress(ctx, uow, t.ID)
	if err != nil {
		return err
	}
	from := t.Status
	result := coretask.NextStatusAfterReview(coretask.Status(from), reviewed, total, s.clock())
	if string(result.NewStatus) == from {
		return nil
	}
	t.Status = string(result.NewStatus)
	t.CompletedAt = result.CompletedAt
	if err := uow.Tasks().Update(ctx, t); err != nil {
		return err
	}
	ob.taskMoved(from, t.Status)
	return nil
}

// reviewProgress counts the items of a task that carry a decision. An item
// that has since moved to a newer task counts as reviewed for this one.
func reviewProgress(ctx context.Context, uow secondary.UnitOfWork, taskID int64) (reviewed, total int, err error) {
	items, err := uow.TaskItems().ListByTask(ctx, taskID)
	if err != nil {
		return 0, 0, err
	}
	for _, ti := range items {
		item, err := uow.DataItems().GetByID(ctx, ti.DataItemID)
		if err != nil {
			return 0, 0, err
		}
		if dataitem.Status(item.Status).IsReviewed() {
			reviewed++
			continue
		}
		latest, err := uow.TaskItems().FindLatestByDataItem(ctx, ti.DataItemID)
		if err != nil {
			return 0, 0, err
		}
		if latest.TaskID != taskID {
			reviewed++
		}
	}
	return reviewed, len(items), nil
}

func (s *ReviewServiceImpl) knownErrorTypes(ctx context.Context, uow secondary.UnitOfWork) (map[int64]bool, error) {
	types, err := uow.ErrorTypes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load error types: %w", err)
	}
	known := make(map[int64]bool, len(types))
	for _, t := range types {
		known[t.ID] = true
	}
	return known, nil
}

// ListReviews lists the reviews of a data item, newest first.
func (s *ReviewServiceImpl) ListReviews(ctx context.Context, dataItemID int64) ([]*primary.Review, error) {
	repos := s.store.Repos()
	if _, err := repos.DataItems().GetByID(ctx, dataItemID); err != nil {
		return nil, err
	}
	records, err := repos.Reviews().ListByDataItem(ctx, dataItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return mapSlice(records, recordToReview), nil
}

// CurrentDecision returns the latest review of a data item.
func (s *ReviewServiceImpl) CurrentDecision(ctx context.Context, dataItemID int64) (*primary.Review, error) {
	record, err := s.store.Repos().Reviews().Latest(ctx, dataItemID)
	if err != nil {
		return nil, err
	}
	return recordToReview(record), nil
}

// ListErrorTypes lists the rejection reason codes.
func (s *ReviewServiceImpl) ListErrorTypes(ctx context.Context) ([]*primary.ErrorType, error) {
	records, err := s.store.Repos().ErrorTypes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list error types: %w", err)
	}
	return mapSlice(records, func(r *secondary.ErrorTypeRecord) *primary.ErrorType {
		return &primary.ErrorType{ID: r.ID, Code: r.Code, Name: r.Name, Description: r.Description}
	}), nil
}

var _ primary.ReviewService = (*ReviewServiceImpl)(nil)
