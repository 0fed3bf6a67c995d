package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/labelr/internal/ports/secondary"
)

// AnnotationRepository implements secondary.AnnotationRepository with SQLite.
type AnnotationRepository struct {
	db DBTX
}

// NewAnnotationRepository creates a new SQLite annotation repository.
func NewAnnotationRepository(db DBTX) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

const annotationSelectCols = "id, data_item_id, label_id, type, coordinates, attributes, created_by, created_at, updated_at"

// Create persists a new annotation. CreatedAt is kept when already set so a
// batch shares one timestamp.
func (r *AnnotationRepository) Create(ctx context.Context, a *secondary.AnnotationRecord) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO annotations (data_item_id, label_id, type, coordinates, attributes, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.DataItemID, a.LabelID, a.Type, a.Coordinates, a.Attributes, a.CreatedBy,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create annotation")
	}
	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read annotation id: %w", err)
	}
	return nil
}

// ListByDataItem retrieves the annotations of a data item in insertion order.
func (r *AnnotationRepository) ListByDataItem(ctx context.Context, dataItemID int64) ([]*secondary.AnnotationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+annotationSelectCols+" FROM annotations WHERE data_item_id = ? ORDER BY id ASC", dataItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*secondary.AnnotationRecord
	for rows.Next() {
		var createdAt, updatedAt dbTime
		a := &secondary.AnnotationRecord{}
		if err := rows.Scan(&a.ID, &a.DataItemID, &a.LabelID, &a.Type, &a.Coordinates, &a.Attributes, &a.CreatedBy, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		a.CreatedAt = createdAt.Time
		a.UpdatedAt = updatedAt.Time
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

// DeleteByDataItem removes every annotation of a data item.
func (r *AnnotationRepository) DeleteByDataItem(ctx context.Context, dataItemID int64) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM annotations WHERE data_item_id = ?", dataItemID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete annotations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}
