package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// ProjectRepository implements secondary.ProjectRepository with SQLite.
type ProjectRepository struct {
	db DBTX
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectSelectCols = "id, name, description, created_by, created_at, updated_at"

func scanProject(s scanner) (*secondary.ProjectRecord, error) {
	var (
		createdBy            sql.NullInt64
		createdAt, updatedAt dbTime
	)
	record := &secondary.ProjectRecord{}
	if err := s.Scan(&record.ID, &record.Name, &record.Description, &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.CreatedBy = createdBy.Int64
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *secondary.ProjectRecord) error {
	project.CreatedAt = time.Now().UTC()
	project.UpdatedAt = project.CreatedAt

	var createdBy sql.NullInt64
	if project.CreatedBy != 0 {
		createdBy = sql.NullInt64{Int64: project.CreatedBy, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (name, description, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		project.Name, project.Description, createdBy, formatTime(project.CreatedAt), formatTime(project.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create project")
	}
	project.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read project id: %w", err)
	}
	return nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*secondary.ProjectRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+projectSelectCols+" FROM projects WHERE id = ?", id)
	record, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("project", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return record, nil
}

// List retrieves all projects.
func (r *ProjectRepository) List(ctx context.Context) ([]*secondary.ProjectRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+projectSelectCols+" FROM projects ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*secondary.ProjectRecord
	for rows.Next() {
		record, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, record)
	}
	return projects, rows.Err()
}
