package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/core/annotation"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultLabelColor is used when a label is created without a color.
const DefaultLabelColor = "#3b82f6"

// ProjectServiceImpl implements the ProjectService interface.
type ProjectServiceImpl struct {
	workflow
}

// NewProjectService creates a new ProjectService with injected dependencies.
func NewProjectService(deps Deps) *ProjectServiceImpl {
	return &ProjectServiceImpl{workflow: newWorkflow(deps)}
}

// CreateProject creates a project together with its dataset.
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, req primary.CreateProjectRequest) (*primary.Project, error) {
	ctx = correlate(ctx)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.Validation("name", "project name is required")
	}

	var (
		out *secondary.ProjectRecord
		ob  outbox
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}

		rec := &secondary.ProjectRecord{Name: name, Description: req.Description, CreatedBy: actor.ID}
		if err := uow.Projects().Create(ctx, rec); err != nil {
			return err
		}
		ds := &secondary.DatasetRecord{ProjectID: rec.ID, Name: name}
		if err := uow.Datasets().Create(ctx, ds); err != nil {
			return err
		}
		ob.record(actor.ID, "project.created", "project", rec.ID, map[string]any{"dataset_id": ds.ID})
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToProject(out), nil
}

// GetProject retrieves a project by ID.
func (s *ProjectServiceImpl) GetProject(ctx context.Context, id int64) (*primary.Project, error) {
	record, err := s.store.Repos().Projects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToProject(record), nil
}

// ListProjects lists every project.
func (s *ProjectServiceImpl) ListProjects(ctx context.Context) ([]*primary.Project, error) {
	records, err := s.store.Repos().Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return mapSlice(records, recordToProject), nil
}

// CreateLabel adds a label to a project. Names are unique per project.
func (s *ProjectServiceImpl) CreateLabel(ctx context.Context, req primary.CreateLabelRequest) (*primary.Label, error) {
	ctx = correlate(ctx)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.Validation("name", "label name is required")
	}
	typ, err := annotation.ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	color := req.Color
	if color == "" {
		color = DefaultLabelColor
	}
	if !colorPattern.MatchString(color) {
		return nil, errs.Validation("color", "color %q is not a #rrggbb value", color)
	}

	var (
		out *secondary.LabelRecord
		ob  outbox
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageProjects(actor); !r.Allowed {
			return r.Error()
		}
		if _, err := uow.Projects().GetByID(ctx, req.ProjectID); err != nil {
			return err
		}

		rec := &secondary.LabelRecord{ProjectID: req.ProjectID, Name: name, Type: string(typ), Color: strings.ToLower(color)}
		if err := uow.Labels().Create(ctx, rec); err != nil {
			if errs.IsConflict(err) {
				return errs.Conflict("project %d already has a label named %q", req.ProjectID, name)
			}
			return err
		}
		ob.record(actor.ID, "label.created", "label", rec.ID, map[string]any{"project_id": req.ProjectID, "type": rec.Type})
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToLabel(out), nil
}

// ListLabels lists the labels of a project.
func (s *ProjectServiceImpl) ListLabels(ctx context.Context, projectID int64) ([]*primary.Label, error) {
	repos := s.store.Repos()
	if _, err := repos.Projects().GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	records, err := repos.Labels().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return mapSlice(records, recordToLabel), nil
}

var _ primary.ProjectService = (*ProjectServiceImpl)(nil)
