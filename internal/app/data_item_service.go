package app

import (
	"context"
	"fmt"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/dataitem"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

// DataItemServiceImpl implements the DataItemService interface.
type DataItemServiceImpl struct {
	workflow
}

// NewDataItemService creates a new DataItemService with injected dependencies.
func NewDataItemService(deps Deps) *DataItemServiceImpl {
	return &DataItemServiceImpl{workflow: newWorkflow(deps)}
}

// BulkUpdateStatus moves every listed item to the status. Each id goes
// through the status machine on its own; ids that cannot move are reported.
func (s *DataItemServiceImpl) BulkUpdateStatus(ctx context.Context, ids []int64, status string) (*primary.BulkUpdateResult, error) {
	ctx = correlate(ctx)

	to, err := dataitem.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if r := dataitem.BulkTargetAllowed(to); !r.Allowed {
		return nil, r.Error()
	}

	var (
		out primary.BulkUpdateResult
		ob  outbox
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageTasks(actor); !r.Allowed {
			return r.Error()
		}

		unique, failed := dedupe(ids)
		var moved []int64
		for _, id := range unique {
			item, err := uow.DataItems().GetByID(ctx, id)
			if errs.IsNotFound(err) {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: "data item not found"})
				continue
			}
			if err != nil {
				return err
			}

			from := dataitem.Status(item.Status)
			if r := dataitem.CanBulkTransition(from, to); !r.Allowed {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: r.Reason})
				continue
			}
			// Items inside an open task move only through the task workflow.
			active, err := uow.TaskItems().FindActiveByDataItem(ctx, id)
			if err == nil {
				failed = append(failed, errs.ItemFailure{ID: id, Reason: fmt.Sprintf("managed by task %d", active.TaskID)})
				continue
			}
			if !errs.IsNotFound(err) {
				return err
			}
			if err := uow.DataItems().UpdateStatus(ctx, item, string(to), s.clock()); err != nil {
				if errs.IsConflict(err) {
					failed = append(failed, errs.ItemFailure{ID: id, Reason: reason(err)})
					continue
				}
				return err
			}
			ob.dataItemMoved(string(from), string(to))
			moved = append(moved, id)
		}

		ob.record(actor.ID, "data_items.bulk_status", "data_item", 0, map[string]any{
			"status": string(to),
			"moved":  moved,
			"failed": len(failed),
		})
		out = primary.BulkUpdateResult{Affected: len(moved), FailedIDs: failed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return &out, nil
}

// GetDataItem retrieves a data item by ID.
func (s *DataItemServiceImpl) GetDataItem(ctx context.Context, id int64) (*primary.DataItem, error) {
	record, err := s.store.Repos().DataItems().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToDataItem(record), nil
}

// ListDataItems lists data items with optional filters.
func (s *DataItemServiceImpl) ListDataItems(ctx context.Context, filters primary.DataItemFilters) ([]*primary.DataItem, error) {
	if filters.Status != "" {
		if _, err := dataitem.ParseStatus(filters.Status); err != nil {
			return nil, err
		}
	}
	records, err := s.store.Repos().DataItems().List(ctx, secondary.DataItemFilters{
		DatasetID: filters.DatasetID,
		ProjectID: filters.ProjectID,
		Status:    filters.Status,
		Limit:     filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list data items: %w", err)
	}
	return mapSlice(records, recordToDataItem), nil
}

var _ primary.DataItemService = (*DataItemServiceImpl)(nil)
