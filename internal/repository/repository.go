package repository

import (
	"github.com/taskloop/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with its attachment rows
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with scoping, filtering, sorting and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task and its attachment rows
	Update(task *models.Task) error

	// Delete removes a task and its attachment rows
	Delete(id uint64) error
}

// TaskFilter holds the query options for listing tasks
type TaskFilter struct {
	// VisibleTo scopes the listing to tasks the user created or is assigned
	// to. Nil means no scoping (admin).
	VisibleTo *uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	SortField string
	SortOrder string
	Page      int
	PageSize  int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email (case-normalized by the caller)
	FindByEmail(email string) (*models.User, error)

	// List retrieves users excluding the given ID, sorted and paginated
	List(filter UserFilter) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// DeleteCascade removes a user along with every task assigned to them
	// and those tasks' attachment rows, in one transaction
	DeleteCascade(id uint64) error

	// AttachmentsForAssignee returns the attachment rows of every task
	// assigned to the user, for blob cleanup before a cascade delete
	AttachmentsForAssignee(id uint64) ([]models.Attachment, error)
}

// UserFilter holds the query options for listing users
type UserFilter struct {
	// ExcludeID leaves the requesting admin out of the roster.
	ExcludeID uint64
	SortField string
	SortOrder string
	Page      int
	PageSize  int
}
