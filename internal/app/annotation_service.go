package app

import (
	"context"
	"fmt"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/annotation"
	"github.com/example/labelr/internal/core/dataitem"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// AnnotationServiceImpl implements the AnnotationService interface.
type AnnotationServiceImpl struct {
	workflow
}

// NewAnnotationService creates a new AnnotationService with injected dependencies.
func NewAnnotationService(deps Deps) *AnnotationServiceImpl {
	return &AnnotationServiceImpl{workflow: newWorkflow(deps)}
}

// SaveAnnotations replaces every annotation of a data item with the given set.
// The batch is validated in full before anything is written.
func (s *AnnotationServiceImpl) SaveAnnotations(ctx context.Context, dataItemID int64, inputs []primary.AnnotationInput) ([]*primary.Annotation, error) {
	ctx = correlate(ctx)
	var (
		saved []*secondary.AnnotationRecord
		ob    outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanAnnotate(actor); !r.Allowed {
			return r.Error()
		}

		item, err := uow.DataItems().GetByID(ctx, dataItemID)
		if err != nil {
			return err
		}
		if r := dataitem.CanAnnotate(item.ID, dataitem.Status(item.Status)); !r.Allowed {
			return r.Error()
		}
		if actor.Role == access.RoleAnnotator {
			if err := s.requireOwner(ctx, uow, item.ID, actor.ID); err != nil {
				return err
			}
		}

		labels, err := uow.Labels().ListByProject(ctx, item.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to load labels: %w", err)
		}
		known := make(map[int64]annotation.LabelInfo, len(labels))
		for _, l := range labels {
			known[l.ID] = annotation.LabelInfo{ID: l.ID, ProjectID: l.ProjectID, Type: annotation.Type(l.Type)}
		}

		batch := make([]annotation.Input, len(inputs))
		for i, in := range inputs {
			batch[i] = annotation.Input{
				LabelID:     in.LabelID,
				Type:        annotation.Type(in.Type),
				Coordinates: in.Coordinates,
				Attributes:  in.Attributes,
			}
		}
		validated, err := annotation.ValidateBatch(item.ProjectID, batch, known)
		if err != nil {
			return err
		}

		removed, err := uow.Annotations().DeleteByDataItem(ctx, item.ID)
		if err != nil {
			return err
		}

		now := s.clock()
		saved = make([]*secondary.AnnotationRecord, 0, len(validated))
		for _, v := range validated {
			rec := &secondary.AnnotationRecord{
				DataItemID:  item.ID,
				LabelID:     v.LabelID,
				Type:        string(v.Type),
				Coordinates: v.Coordinates,
				Attributes:  v.Attributes,
				CreatedBy:   actor.ID,
			}
			rec.CreatedAt = now
			if err := uow.Annotations().Create(ctx, rec); err != nil {
				return err
			}
			saved = append(saved, rec)
		}

		ob.record(actor.ID, "annotations.saved", "data_item", item.ID, map[string]any{
			"replaced": removed,
			"saved":    len(saved),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return mapSlice(saved, recordToAnnotation), nil
}

// ListAnnotations lists the annotations of a data item.
func (s *AnnotationServiceImpl) ListAnnotations(ctx context.Context, dataItemID int64) ([]*primary.Annotation, error) {
	repos := s.store.Repos()
	if _, err := repos.DataItems().GetByID(ctx, dataItemID); err != nil {
		return nil, err
	}
	records, err := repos.Annotations().ListByDataItem(ctx, dataItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	return mapSlice(records, recordToAnnotation), nil
}

// requireOwner checks that the item sits in an active task of the annotator.
func (s *AnnotationServiceImpl) requireOwner(ctx context.Context, uow secondary.UnitOfWork, dataItemID, annotatorID int64) error {
	ti, err := uow.TaskItems().FindActiveByDataItem(ctx, dataItemID)
	if errs.IsNotFound(err) {
		return errs.Forbidden("data item %d is not in any active task", dataItemID)
	}
	if err != nil {
		return err
	}
	t, err := uow.Tasks().GetByID(ctx, ti.TaskID)
	if err != nil {
		return err
	}
	if t.AnnotatorID != annotatorID {
		return errs.Forbidden("data item %d belongs to a task assigned to another annotator", dataItemID)
	}
	return nil
}

var _ primary.AnnotationService = (*AnnotationServiceImpl)(nil)
