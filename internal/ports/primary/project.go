package primary

import (
	"context"
	"time"
)

// ProjectService defines the primary port for project and label operations.
type ProjectService interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	// CreateLabel adds a label to a project.
	CreateLabel(ctx context.Context, req CreateLabelRequest) (*Label, error)

	// ListLabels lists the labels of a project.
	ListLabels(ctx context.Context, projectID int64) ([]*Label, error)
}

// CreateProjectRequest contains parameters for creating a project.
type CreateProjectRequest struct {
	Name        string
	Description string
}

// Project represents a project at the port boundary.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
}

// CreateLabelRequest contains parameters for creating a label.
type CreateLabelRequest struct {
	ProjectID int64
	Name      string
	Type      string // bbox, polygon or classification
	Color     string // #rrggbb, optional
}

// Label represents a label at the port boundary.
type Label struct {
	ID        int64
	ProjectID int64
	Name      string
	Type      string
	Color     string
}
