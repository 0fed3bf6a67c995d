package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// LabelRepository implements secondary.LabelRepository with SQLite.
type LabelRepository struct {
	db DBTX
}

// NewLabelRepository creates a new SQLite label repository.
func NewLabelRepository(db DBTX) *LabelRepository {
	return &LabelRepository{db: db}
}

const labelSelectCols = "id, project_id, name, type, color, created_at, updated_at"

func scanLabel(s scanner) (*secondary.LabelRecord, error) {
	var createdAt, updatedAt dbTime
	record := &secondary.LabelRecord{}
	if err := s.Scan(&record.ID, &record.ProjectID, &record.Name, &record.Type, &record.Color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a new label.
func (r *LabelRepository) Create(ctx context.Context, label *secondary.LabelRecord) error {
	label.CreatedAt = time.Now().UTC()
	label.UpdatedAt = label.CreatedAt

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO labels (project_id, name, type, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		label.ProjectID, label.Name, label.Type, label.Color, formatTime(label.CreatedAt), formatTime(label.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create label %q", label.Name)
	}
	label.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read label id: %w", err)
	}
	return nil
}

// GetByID retrieves a label by its ID.
func (r *LabelRepository) GetByID(ctx context.Context, id int64) (*secondary.LabelRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+labelSelectCols+" FROM labels WHERE id = ?", id)
	record, err := scanLabel(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("label", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get label: %w", err)
	}
	return record, nil
}

// ListByProject retrieves the labels of a project.
func (r *LabelRepository) ListByProject(ctx context.Context, projectID int64) ([]*secondary.LabelRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+labelSelectCols+" FROM labels WHERE project_id = ? ORDER BY id ASC", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []*secondary.LabelRecord
	for rows.Next() {
		record, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, record)
	}
	return labels, rows.Err()
}
