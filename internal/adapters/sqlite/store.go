package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/labelr/internal/ports/secondary"
)

// Store implements secondary.Store over one *sql.DB.
type Store struct {
	db    *sql.DB
	repos *unitOfWork
}

// NewStore creates a Store. The pool should be limited to one connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: newUnitOfWork(db)}
}

// Repos returns repositories bound to the pool.
func (s *Store) Repos() secondary.UnitOfWork {
	return s.repos
}

// WithinTx runs fn inside one transaction.
//
// The transaction itself runs on a non-cancelling context: cancellation is
// honoured before BEGIN and before COMMIT, never between two statements.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow secondary.UnitOfWork) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction not started: %w", err)
	}

	txCtx := context.WithoutCancel(ctx)
	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx, newUnitOfWork(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("transaction rolled back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return translate(err, "failed to commit transaction")
	}
	return nil
}

type unitOfWork struct {
	users         *UserRepository
	projects      *ProjectRepository
	datasets      *DatasetRepository
	dataItems     *DataItemRepository
	labels        *LabelRepository
	tasks         *TaskRepository
	taskItems     *TaskItemRepository
	annotations   *AnnotationRepository
	reviews       *ReviewRepository
	errorTypes    *ErrorTypeRepository
	notifications *NotificationRepository
	activity      *ActivityRepository
}

func newUnitOfWork(db DBTX) *unitOfWork {
	return &unitOfWork{
		users:         NewUserRepository(db),
		projects:      NewProjectRepository(db),
		datasets:      NewDatasetRepository(db),
		dataItems:     NewDataItemRepository(db),
		labels:        NewLabelRepository(db),
		tasks:         NewTaskRepository(db),
		taskItems:     NewTaskItemRepository(db),
		annotations:   NewAnnotationRepository(db),
		reviews:       NewReviewRepository(db),
		errorTypes:    NewErrorTypeRepository(db),
		notifications: NewNotificationRepository(db),
		activity:      NewActivityRepository(db),
	}
}

func (u *unitOfWork) Users() secondary.UserRepository                 { return u.users }
func (u *unitOfWork) Projects() secondary.ProjectRepository           { return u.projects }
func (u *unitOfWork) Datasets() secondary.DatasetRepository           { return u.datasets }
func (u *unitOfWork) DataItems() secondary.DataItemRepository         { return u.dataItems }
func (u *unitOfWork) Labels() secondary.LabelRepository               { return u.labels }
func (u *unitOfWork) Tasks() secondary.TaskRepository                 { return u.tasks }
func (u *unitOfWork) TaskItems() secondary.TaskItemRepository         { return u.taskItems }
func (u *unitOfWork) Annotations() secondary.AnnotationRepository     { return u.annotations }
func (u *unitOfWork) Reviews() secondary.ReviewRepository             { return u.reviews }
func (u *unitOfWork) ErrorTypes() secondary.ErrorTypeRepository       { return u.errorTypes }
func (u *unitOfWork) Notifications() secondary.NotificationRepository { return u.notifications }
func (u *unitOfWork) Activity() secondary.ActivityRepository          { return u.activity }

var (
	_ secondary.Store                  = (*Store)(nil)
	_ secondary.UserRepository         = (*UserRepository)(nil)
	_ secondary.ProjectRepository      = (*ProjectRepository)(nil)
	_ secondary.DatasetRepository      = (*DatasetRepository)(nil)
	_ secondary.DataItemRepository     = (*DataItemRepository)(nil)
	_ secondary.LabelRepository        = (*LabelRepository)(nil)
	_ secondary.TaskRepository         = (*TaskRepository)(nil)
	_ secondary.TaskItemRepository     = (*TaskItemRepository)(nil)
	_ secondary.AnnotationRepository   = (*AnnotationRepository)(nil)
	_ secondary.ReviewRepository       = (*ReviewRepository)(nil)
	_ secondary.ErrorTypeRepository    = (*ErrorTypeRepository)(nil)
	_ secondary.NotificationRepository = (*NotificationRepository)(nil)
	_ secondary.ActivityRepository     = (*ActivityRepository)(nil)
)
