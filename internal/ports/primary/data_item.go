package primary

import (
	"context"
	"time"

	"github.com/example/labelr/internal/errs"
)

// DataItemService defines the primary port for data item operations.
type DataItemService interface {
	// BulkUpdateStatus moves every listed item to the status. Items whose
	// current status cannot reach it are reported, the rest are applied.
	BulkUpdateStatus(ctx context.Context, ids []int64, status string) (*BulkUpdateResult, error)

	// GetDataItem retrieves a data item by ID.
	GetDataItem(ctx context.Context, id int64) (*DataItem, error)

	// ListDataItems lists data items with optional filters.
	ListDataItems(ctx context.Context, filters DataItemFilters) ([]*DataItem, error)
}

// BulkUpdateResult reports a bulk status update.
type BulkUpdateResult struct {
	Affected  int
	FailedIDs []errs.ItemFailure
}

// DataItem represents a data item at the port boundary.
type DataItem struct {
	ID        int64
	DatasetID int64
	ProjectID int64
	FileName  string
	FilePath  string
	FileSize  int64
	MimeType  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DataItemFilters contains filter options for listing data items.
type DataItemFilters struct {
	DatasetID int64
	ProjectID int64
	Status    string
	Limit     int
}
