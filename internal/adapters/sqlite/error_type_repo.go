package sqlite

import (
	"context"
	"fmt"

	"github.com/example/labelr/internal/ports/secondary"
)

// ErrorTypeRepository implements secondary.ErrorTypeRepository with SQLite.
type ErrorTypeRepository struct {
	db DBTX
}

// NewErrorTypeRepository creates a new SQLite error type repository.
func NewErrorTypeRepository(db DBTX) *ErrorTypeRepository {
	return &ErrorTypeRepository{db: db}
}

// List retrieves every error type ordered by code.
func (r *ErrorTypeRepository) List(ctx context.Context) ([]*secondary.ErrorTypeRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, code, name, description FROM error_types ORDER BY code ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list error types: %w", err)
	}
	defer rows.Close()

	var types []*secondary.ErrorTypeRecord
	for rows.Next() {
		et := &secondary.ErrorTypeRecord{}
		if err := rows.Scan(&et.ID, &et.Code, &et.Name, &et.Description); err != nil {
			return nil, fmt.Errorf("failed to scan error type: %w", err)
		}
		types = append(types, et)
	}
	return types, rows.Err()
}
