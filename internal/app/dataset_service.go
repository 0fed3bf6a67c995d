package app

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/dataitem"
	"github.com/example/labelr/internal/core/dataset"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// DatasetServiceImpl implements the DatasetService interface.
type DatasetServiceImpl struct {
	workflow
}

// NewDatasetService creates a new DatasetService with injected dependencies.
func NewDatasetService(deps Deps) *DatasetServiceImpl {
	return &DatasetServiceImpl{workflow: newWorkflow(deps)}
}

// CreateDataset creates the dataset of a project. A project has at most one.
func (s *DatasetServiceImpl) CreateDataset(ctx context.Context, projectID int64, name string) (*primary.Dataset, error) {
	ctx = correlate(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("name", "dataset name is required")
	}

	var (
		out *secondary.DatasetRecord
		ob  outbox
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}
		if _, err := uow.Projects().GetByID(ctx, projectID); err != nil {
			return err
		}

		rec := &secondary.DatasetRecord{ProjectID: projectID, Name: name}
		if err := uow.Datasets().Create(ctx, rec); err != nil {
			if errs.IsConflict(err) {
				return errs.Conflict("project %d already has a dataset", projectID)
			}
			return err
		}
		ob.record(actor.ID, "dataset.created", "dataset", rec.ID, map[string]any{"project_id": projectID})
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToDataset(out), nil
}

// AddItem stores the uploaded file, registers a pending data item and
// recounts the dataset. The stored file is removed again if the insert fails.
func (s *DatasetServiceImpl) AddItem(ctx context.Context, req primary.AddItemRequest) (*primary.DataItem, error) {
	ctx = correlate(ctx)
	if req.Content == nil {
		return nil, errs.Validation("content", "file content is required")
	}

	// Check access and the dataset before writing any bytes.
	if err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}
		_, err = uow.Datasets().GetByID(ctx, req.DatasetID)
		return err
	}); err != nil {
		return nil, err
	}

	stored, err := s.files.Save(ctx, req.FileName, req.Content)
	if err != nil {
		return nil, err
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(req.FileName)))
	}

	var (
		out *secondary.DataItemRecord
		ob  outbox
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		rec := &secondary.DataItemRecord{
			DatasetID: req.DatasetID,
			FileName:  filepath.Base(req.FileName),
			FilePath:  stored.Path,
			FileSize:  stored.Size,
			MimeType:  mimeType,
			Status:    string(dataitem.InitialStatus()),
		}
		if err := uow.DataItems().Create(ctx, rec); err != nil {
			return err
		}
		if _, err := recountDataset(ctx, uow, req.DatasetID); err != nil {
			return err
		}
		ob.record(actor.ID, "data_item.added", "data_item", rec.ID, map[string]any{
			"dataset_id": req.DatasetID,
			"file":       rec.FileName,
			"size":       rec.FileSize,
		})
		out = rec
		return nil
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, stored.Path); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", stored.Path).Msg("failed to remove orphaned file")
		}
		return nil, err
	}

	s.flush(ctx, &ob)
	got, err := s.store.Repos().DataItems().GetByID(ctx, out.ID)
	if err != nil {
		return nil, err
	}
	return recordToDataItem(got), nil
}

// RemoveItem removes a pending data item, recounts its dataset and deletes
// the stored file best-effort.
func (s *DatasetServiceImpl) RemoveItem(ctx context.Context, dataItemID int64) error {
	ctx = correlate(ctx)
	var (
		path string
		ob   outbox
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}

		item, err := uow.DataItems().GetByID(ctx, dataItemID)
		if err != nil {
			return err
		}
		if r := dataitem.CanRemove(item.ID, dataitem.Status(item.Status)); !r.Allowed {
			return r.Error()
		}
		// Completed task items cascade with the item; their tasks need new counters.
		history, err := uow.TaskItems().ListByDataItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if err := uow.DataItems().Delete(ctx, item.ID); err != nil {
			return err
		}
		recounted := make(map[int64]bool, len(history))
		for _, ti := range history {
			if recounted[ti.TaskID] {
				continue
			}
			recounted[ti.TaskID] = true
			task, err := uow.Tasks().GetByID(ctx, ti.TaskID)
			if err != nil {
				return err
			}
			if err := s.recountTask(ctx, uow, task, &ob); err != nil {
				return err
			}
		}
		if _, err := recountDataset(ctx, uow, item.DatasetID); err != nil {
			return err
		}
		ob.record(actor.ID, "data_item.removed", "data_item", item.ID, map[string]any{"dataset_id": item.DatasetID})
		path = item.FilePath
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to delete data item file")
	}
	s.flush(ctx, &ob)
	return nil
}

// GetDataset retrieves a dataset by ID.
func (s *DatasetServiceImpl) GetDataset(ctx context.Context, id int64) (*primary.Dataset, error) {
	record, err := s.store.Repos().Datasets().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToDataset(record), nil
}

// GetDatasetByProject retrieves the dataset of a project.
func (s *DatasetServiceImpl) GetDatasetByProject(ctx context.Context, projectID int64) (*primary.Dataset, error) {
	record, err := s.store.Repos().Datasets().GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return recordToDataset(record), nil
}

// ListDatasets lists every dataset.
func (s *DatasetServiceImpl) ListDatasets(ctx context.Context) ([]*primary.Dataset, error) {
	records, err := s.store.Repos().Datasets().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return mapSlice(records, recordToDataset), nil
}

// RecountDataset recomputes the aggregate counters of a dataset.
func (s *DatasetServiceImpl) RecountDataset(ctx context.Context, id int64) (*primary.Dataset, error) {
	ctx = correlate(ctx)
	var out *secondary.DatasetRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}
		rec, err := recountDataset(ctx, uow, id)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToDataset(out), nil
}

// recountDataset derives the dataset totals from its items and stores them.
func recountDataset(ctx context.Context, uow secondary.UnitOfWork, datasetID int64) (*secondary.DatasetRecord, error) {
	rec, err := uow.Datasets().GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	sizes, err := uow.DataItems().SizesByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	totals := dataset.Recount(sizes)
	if err := uow.Datasets().UpdateTotals(ctx, datasetID, totals.TotalItems, totals.TotalSizeMB); err != nil {
		return nil, err
	}
	rec.TotalItems = totals.TotalItems
	rec.TotalSizeMB = totals.TotalSizeMB
	return rec, nil
}

var _ primary.DatasetService = (*DatasetServiceImpl)(nil)
