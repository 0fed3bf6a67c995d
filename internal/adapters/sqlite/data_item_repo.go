package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// DataItemRepository implements secondary.DataItemRepository with SQLite.
type DataItemRepository struct {
	db DBTX
}

// NewDataItemRepository creates a new SQLite data item repository.
func NewDataItemRepository(db DBTX) *DataItemRepository {
	return &DataItemRepository{db: db}
}

const dataItemSelectCols = "di.id, di.dataset_id, ds.project_id, di.file_name, di.file_path, di.file_size, di.mime_type, di.status, di.version, di.created_at, di.updated_at"

const dataItemFrom = " FROM data_items di JOIN datasets ds ON ds.id = di.dataset_id"

func scanDataItem(s scanner) (*secondary.DataItemRecord, error) {
	var createdAt, updatedAt dbTime
	record := &secondary.DataItemRecord{}
	err := s.Scan(
		&record.ID, &record.DatasetID, &record.ProjectID, &record.FileName, &record.FilePath,
		&record.FileSize, &record.MimeType, &record.Status, &record.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a new data item.
func (r *DataItemRepository) Create(ctx context.Context, item *secondary.DataItemRecord) error {
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	item.Version = 1

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO data_items (dataset_id, file_name, file_path, file_size, mime_type, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		item.DatasetID, item.FileName, item.FilePath, item.FileSize, item.MimeType, item.Status,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create data item")
	}
	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read data item id: %w", err)
	}
	return nil
}

// GetByID retrieves a data item by its ID.
func (r *DataItemRepository) GetByID(ctx context.Context, id int64) (*secondary.DataItemRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+dataItemSelectCols+dataItemFrom+" WHERE di.id = ?", id)
	record, err := scanDataItem(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("data item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data item: %w", err)
	}
	return record, nil
}

// List retrieves data items matching the given filters.
func (r *DataItemRepository) List(ctx context.Context, filters secondary.DataItemFilters) ([]*secondary.DataItemRecord, error) {
	query := "SELECT " + dataItemSelectCols + dataItemFrom + " WHERE 1=1"
	args := []any{}

	if filters.DatasetID != 0 {
		query += " AND di.dataset_id = ?"
		args = append(args, filters.DatasetID)
	}
	if filters.ProjectID != 0 {
		query += " AND ds.project_id = ?"
		args = append(args, filters.ProjectID)
	}
	if filters.Status != "" {
		query += " AND di.status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY di.id ASC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list data items: %w", err)
	}
	defer rows.Close()

	var items []*secondary.DataItemRecord
	for rows.Next() {
		record, err := scanDataItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data item: %w", err)
		}
		items = append(items, record)
	}
	return items, rows.Err()
}

// UpdateStatus moves the item to a new status if its version still matches.
func (r *DataItemRepository) UpdateStatus(ctx context.Context, item *secondary.DataItemRecord, status string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE data_items SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?",
		status, formatTime(now), item.ID, item.Version,
	)
	if err != nil {
		return translate(err, "failed to update data item %d", item.ID)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return versionMiss(ctx, r.db, "data_items", "data item", item.ID)
	}

	item.Status = status
	item.Version++
	item.UpdatedAt = now.UTC()
	return nil
}

// Delete removes a data item.
func (r *DataItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM data_items WHERE id = ?", id)
	if err != nil {
		return translate(err, "failed to delete data item %d", id)
	}
	return requireAffected(result, "data item", id)
}

// SizesByDataset returns the byte size of every item of a dataset.
func (r *DataItemRepository) SizesByDataset(ctx context.Context, datasetID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT file_size FROM data_items WHERE dataset_id = ?", datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset sizes: %w", err)
	}
	defer rows.Close()

	sizes := []int64{}
	for rows.Next() {
		var size int64
		if err := rows.Scan(&size); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, size)
	}
	return sizes, rows.Err()
}

// CountByStatus returns the number of items per status.
func (r *DataItemRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "data_items")
}
