package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// DatasetRepository implements secondary.DatasetRepository with SQLite.
type DatasetRepository struct {
	db DBTX
}

// NewDatasetRepository creates a new SQLite dataset repository.
func NewDatasetRepository(db DBTX) *DatasetRepository {
	return &DatasetRepository{db: db}
}

const datasetSelectCols = "id, project_id, name, total_items, total_size_mb, created_at, updated_at"

func scanDataset(s scanner) (*secondary.DatasetRecord, error) {
	var createdAt, updatedAt dbTime
	record := &secondary.DatasetRecord{}
	err := s.Scan(&record.ID, &record.ProjectID, &record.Name, &record.TotalItems, &record.TotalSizeMB, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a new dataset.
func (r *DatasetRepository) Create(ctx context.Context, dataset *secondary.DatasetRecord) error {
	dataset.CreatedAt = time.Now().UTC()
	dataset.UpdatedAt = dataset.CreatedAt

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO datasets (project_id, name, total_items, total_size_mb, created_at, updated_at) VALUES (?, ?, 0, 0, ?, ?)",
		dataset.ProjectID, dataset.Name, formatTime(dataset.CreatedAt), formatTime(dataset.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create dataset for project %d", dataset.ProjectID)
	}
	dataset.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read dataset id: %w", err)
	}
	return nil
}

// GetByID retrieves a dataset by its ID.
func (r *DatasetRepository) GetByID(ctx context.Context, id int64) (*secondary.DatasetRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+datasetSelectCols+" FROM datasets WHERE id = ?", id)
	record, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("dataset", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return record, nil
}

// GetByProject retrieves the dataset of a project.
func (r *DatasetRepository) GetByProject(ctx context.Context, projectID int64) (*secondary.DatasetRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+datasetSelectCols+" FROM datasets WHERE project_id = ?", projectID)
	record, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("dataset", "project %d has no dataset", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return record, nil
}

// List retrieves all datasets.
func (r *DatasetRepository) List(ctx context.Context) ([]*secondary.DatasetRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+datasetSelectCols+" FROM datasets ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*secondary.DatasetRecord
	for rows.Next() {
		record, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, record)
	}
	return datasets, rows.Err()
}

// UpdateTotals stores recomputed aggregate counters.
func (r *DatasetRepository) UpdateTotals(ctx context.Context, id int64, totalItems int, totalSizeMB float64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE datasets SET total_items = ?, total_size_mb = ?, updated_at = ? WHERE id = ?",
		totalItems, totalSizeMB, formatTime(time.Now()), id,
	)
	if err != nil {
		return translate(err, "failed to update dataset totals")
	}
	return requireAffected(result, "dataset", id)
}
