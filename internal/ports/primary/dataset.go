package primary

import (
	"context"
	"io"
	"time"
)

// DatasetService defines the primary port for dataset operations.
type DatasetService interface {
	// CreateDataset creates the dataset of a project.
	CreateDataset(ctx context.Context, projectID int64, name string) (*Dataset, error)

	// AddItem stores an uploaded file and registers it as a pending data item.
	AddItem(ctx context.Context, req AddItemRequest) (*DataItem, error)

	// RemoveItem removes a pending data item and its file.
	RemoveItem(ctx context.Context, dataItemID int64) error

	// GetDataset retrieves a dataset by ID.
	GetDataset(ctx context.Context, id int64) (*Dataset, error)

	// GetDatasetByProject retrieves the dataset of a project.
	GetDatasetByProject(ctx context.Context, projectID int64) (*Dataset, error)

	// ListDatasets lists every dataset.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// RecountDataset recomputes the aggregate counters of a dataset.
	RecountDataset(ctx context.Context, id int64) (*Dataset, error)
}

// AddItemRequest contains parameters for uploading a data item.
type AddItemRequest struct {
	DatasetID int64
	FileName  string
	MimeType  string // Optional, guessed from the extension when empty
	Content   io.Reader
}

// Dataset represents a dataset at the port boundary.
type Dataset struct {
	ID          int64
	ProjectID   int64
	Name        string
	TotalItems  int
	TotalSizeMB float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
