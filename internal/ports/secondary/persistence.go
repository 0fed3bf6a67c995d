// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// Base holds the fields shared by every persisted record.
type Base struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRepository defines the secondary port for user persistence.
type UserRepository interface {
	// Create persists a new user and sets its ID.
	Create(ctx context.Context, user *UserRecord) error

	// GetByID retrieves a user by its ID.
	GetByID(ctx context.Context, id int64) (*UserRecord, error)

	// GetByUsername retrieves a user by its unique username.
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)

	// List retrieves users matching the given filters.
	List(ctx context.Context, filters UserFilters) ([]*UserRecord, error)

	// SetActive activates or deactivates a user.
	SetActive(ctx context.Context, id int64, active bool) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	Base
	Username string
	Email    string
	FullName string
	Role     string
	IsActive bool
}

// UserFilters contains filter options for querying users.
type UserFilters struct {
	Role       string
	ActiveOnly bool
}

// ProjectRepository defines the secondary port for project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *ProjectRecord) error
	GetByID(ctx context.Context, id int64) (*ProjectRecord, error)
	List(ctx context.Context) ([]*ProjectRecord, error)
}

// ProjectRecord represents a project as stored in persistence.
type ProjectRecord struct {
	Base
	Name        string
	Description string
	CreatedBy   int64
}

// DatasetRepository defines the secondary port for dataset persistence.
type DatasetRepository interface {
	// Create persists a new dataset. A project owns at most one dataset.
	Create(ctx context.Context, dataset *DatasetRecord) error

	// GetByID retrieves a dataset by its ID.
	GetByID(ctx context.Context, id int64) (*DatasetRecord, error)

	// GetByProject retrieves the dataset of a project.
	GetByProject(ctx context.Context, projectID int64) (*DatasetRecord, error)

	// List retrieves all datasets.
	List(ctx context.Context) ([]*DatasetRecord, error)

	// UpdateTotals stores recomputed aggregate counters.
	UpdateTotals(ctx context.Context, id int64, totalItems int, totalSizeMB float64) error
}

// DatasetRecord represents a dataset as stored in persistence.
type DatasetRecord struct {
	Base
	ProjectID   int64
	Name        string
	TotalItems  int
	TotalSizeMB float64
}

// DataItemRepository defines the secondary port for data item persistence.
type DataItemRepository interface {
	// Create persists a new data item and sets its ID and Version.
	Create(ctx context.Context, item *DataItemRecord) error

	// GetByID retrieves a data item by its ID, with the owning project resolved.
	GetByID(ctx context.Context, id int64) (*DataItemRecord, error)

	// List retrieves data items matching the given filters.
	List(ctx context.Context, filters DataItemFilters) ([]*DataItemRecord, error)

	// UpdateStatus moves the item to a new status if its version still matches
	// item.Version. On success item.Status, item.Version and item.UpdatedAt are
	// updated in place; a stale version is a conflict.
	UpdateStatus(ctx context.Context, item *DataItemRecord, status string, now time.Time) error

	// Delete removes a data item.
	Delete(ctx context.Context, id int64) error

	// SizesByDataset returns the byte size of every item of a dataset.
	SizesByDataset(ctx context.Context, datasetID int64) ([]int64, error)

	// CountByStatus returns the number of items per status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// DataItemRecord represents a data item as stored in persistence.
type DataItemRecord struct {
	Base
	DatasetID int64
	ProjectID int64 // resolved through the dataset, read-only
	FileName  string
	FilePath  string
	FileSize  int64
	MimeType  string
	Status    string
	Version   int64
}

// DataItemFilters contains filter options for querying data items.
type DataItemFilters struct {
	DatasetID int64
	ProjectID int64
	Status    string
	Limit     int
}

// LabelRepository defines the secondary port for label persistence.
type LabelRepository interface {
	Create(ctx context.Context, label *LabelRecord) error
	GetByID(ctx context.Context, id int64) (*LabelRecord, error)
	ListByProject(ctx context.Context, projectID int64) ([]*LabelRecord, error)
}

// LabelRecord represents a label as stored in persistence.
type LabelRecord struct {
	Base
	ProjectID int64
	Name      string
	Type      string
	Color     string
}

// TaskRepository defines the secondary port for annotation task persistence.
type TaskRepository interface {
	// Create persists a new task and sets its ID and Version.
	Create(ctx context.Context, task *TaskRecord) error

	// GetByID retrieves a task by its ID.
	GetByID(ctx context.Context, id int64) (*TaskRecord, error)

	// List retrieves tasks matching the given filters.
	List(ctx context.Context, filters TaskFilters) ([]*TaskRecord, error)

	// Update stores status, counters and timestamps if task.Version still
	// matches, then bumps task.Version in place.
	Update(ctx context.Context, task *TaskRecord) error

	// Delete removes a task and its task items.
	Delete(ctx context.Context, id int64) error

	// CountByStatus returns the number of tasks per status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// TaskRecord represents an annotation task as stored in persistence.
type TaskRecord struct {
	Base
	ProjectID      int64
	AnnotatorID    int64
	AssignedBy     int64
	Title          string
	Status         string
	Deadline       *time.Time
	TotalItems     int
	CompletedItems int
	SubmittedAt    *time.Time
	CompletedAt    *time.Time
	Version        int64
}

// TaskFilters contains filter options for querying tasks.
type TaskFilters struct {
	ProjectID   int64
	AnnotatorID int64
	Status      string
	Limit       int
}

// TaskItemRepository defines the secondary port for task item persistence.
type TaskItemRepository interface {
	// Create persists a new task item. A data item may have only one
	// non-completed task item; a second one is a conflict.
	Create(ctx context.Context, item *TaskItemRecord) error

	// GetByID retrieves a task item by its ID.
	GetByID(ctx context.Context, id int64) (*TaskItemRecord, error)

	// GetByTaskAndDataItem retrieves the task item linking a task and a data item.
	GetByTaskAndDataItem(ctx context.Context, taskID, dataItemID int64) (*TaskItemRecord, error)

	// ListByTask retrieves the task items of a task ordered by ID.
	ListByTask(ctx context.Context, taskID int64) ([]*TaskItemRecord, error)

	// ListByDataItem retrieves every task item of a data item ordered by ID.
	ListByDataItem(ctx context.Context, dataItemID int64) ([]*TaskItemRecord, error)

	// FindActiveByDataItem returns the non-completed task item of a data item.
	FindActiveByDataItem(ctx context.Context, dataItemID int64) (*TaskItemRecord, error)

	// FindLatestByDataItem returns the most recent task item of a data item.
	FindLatestByDataItem(ctx context.Context, dataItemID int64) (*TaskItemRecord, error)

	// Update stores status and timestamps if item.Version still matches, then
	// bumps item.Version in place.
	Update(ctx context.Context, item *TaskItemRecord) error

	// Delete removes a task item.
	Delete(ctx context.Context, id int64) error
}

// TaskItemRecord represents a task item as stored in persistence.
type TaskItemRecord struct {
	Base
	TaskID      int64
	DataItemID  int64
	Status      string
	AssignedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Version     int64
}

// AnnotationRepository defines the secondary port for annotation persistence.
type AnnotationRepository interface {
	Create(ctx context.Context, annotation *AnnotationRecord) error
	ListByDataItem(ctx context.Context, dataItemID int64) ([]*AnnotationRecord, error)

	// DeleteByDataItem removes every annotation of a data item and returns how many were removed.
	DeleteByDataItem(ctx context.Context, dataItemID int64) (int, error)
}

// AnnotationRecord represents an annotation as stored in persistence.
type AnnotationRecord struct {
	Base
	DataItemID  int64
	LabelID     int64
	Type        string
	Coordinates string
	Attributes  string
	CreatedBy   int64
}

// ReviewRepository defines the secondary port for review persistence.
type ReviewRepository interface {
	// Create persists a review and one junction row per error type.
	Create(ctx context.Context, review *ReviewRecord) error

	// ListByDataItem retrieves the reviews of a data item, newest first.
	ListByDataItem(ctx context.Context, dataItemID int64) ([]*ReviewRecord, error)

	// Latest retrieves the newest review of a data item.
	Latest(ctx context.Context, dataItemID int64) (*ReviewRecord, error)
}

// ReviewRecord represents a review as stored in persistence.
type ReviewRecord struct {
	Base
	DataItemID   int64
	ReviewerID   int64
	Decision     string
	Feedback     string
	ErrorTypeIDs []int64
}

// ErrorTypeRepository exposes the fixed lookup table of rejection reasons.
type ErrorTypeRepository interface {
	List(ctx context.Context) ([]*ErrorTypeRecord, error)
}

// ErrorTypeRecord represents one rejection reason code.
type ErrorTypeRecord struct {
	ID          int64
	Code        string
	Name        string
	Description string
}

// NotificationRepository defines the secondary port for notification persistence.
type NotificationRepository interface {
	Create(ctx context.Context, n *NotificationRecord) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*NotificationRecord, error)

	// MarkRead marks a notification of the user as read.
	MarkRead(ctx context.Context, id, userID int64) error
}

// NotificationRecord represents a notification as stored in persistence.
type NotificationRecord struct {
	Base
	UserID     int64
	Kind       string
	Message    string
	TargetType string
	TargetID   int64
	IsRead     bool
}

// ActivityRepository defines the secondary port for the activity log.
type ActivityRepository interface {
	Create(ctx context.Context, rec *ActivityRecord) error
	List(ctx context.Context, filters ActivityFilters) ([]*ActivityRecord, error)
}

// ActivityRecord represents an activity log entry as stored in persistence.
type ActivityRecord struct {
	ID            int64
	UserID        int64
	Action        string
	TargetType    string
	TargetID      int64
	Details       string
	CorrelationID string
	CreatedAt     time.Time
}

// ActivityFilters contains filter options for querying the activity log.
type ActivityFilters struct {
	UserID     int64
	TargetType string
	TargetID   int64
	Limit      int
}

// UnitOfWork exposes every repository bound to one transaction, or to the
// connection pool when obtained from Store.Repos.
type UnitOfWork interface {
	Users() UserRepository
	Projects() ProjectRepository
	Datasets() DatasetRepository
	DataItems() DataItemRepository
	Labels() LabelRepository
	Tasks() TaskRepository
	TaskItems() TaskItemRepository
	Annotations() AnnotationRepository
	Reviews() ReviewRepository
	ErrorTypes() ErrorTypeRepository
	Notifications() NotificationRepository
	Activity() ActivityRepository
}

// Store is the transactional persistence gateway.
type Store interface {
	// Repos returns repositories that run each statement on its own.
	// Never call it from inside WithinTx.
	Repos() UnitOfWork

	// WithinTx runs fn inside one transaction. fn's error rolls the
	// transaction back. A context cancelled before begin or before commit
	// aborts without writing; statements already running are not interrupted.
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
