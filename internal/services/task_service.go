package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/policy"
	"github.com/taskloop/task-tracker-api/internal/repository"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskForbidden       = errors.New("you are not authorized to perform this action on the task")
	ErrAssigneeNotFound    = errors.New("assigned user not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDueDateRequired     = errors.New("due date is required")
	ErrInvalidStatus       = errors.New("status must be one of: pending, in_progress, completed")
	ErrInvalidPriority     = errors.New("priority must be one of: low, medium, high")
)

// taskPreloads are the relations resolved on every task returned to a caller.
var taskPreloads = []string{"AssignedTo", "CreatedBy", "Documents"}

// TaskService sequences task operations: policy check, validation, attachment
// persistence, repository write, response shaping.
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	attachments *AttachmentService
	log         *logrus.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, attachments *AttachmentService, log *logrus.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		attachments: attachments,
		log:         log,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      time.Time
	AssignedToID uint64
	Files        []*multipart.FileHeader
}

// UpdateTaskInput represents a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	AssignedToID *uint64
	Files        []*multipart.FileHeader
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	SortField string
	SortOrder string
	Page      int
	PageSize  int
}

// Create validates the input, resolves the assignee per policy, persists the
// attachments and then the task. Attachments are stored before the row is
// written; if the row write fails the stored blobs are discarded.
func (s *TaskService) Create(ctx context.Context, subject *models.User, input CreateTaskInput) (*models.Task, error) {
	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedByID: subject.ID,
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	assigneeID, err := policy.ResolveAssignee(subject, input.AssignedToID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUserExists(assigneeID); err != nil {
		return nil, err
	}
	task.AssignedToID = assigneeID

	docs, err := s.attachments.Attach(ctx, 0, input.Files)
	if err != nil {
		return nil, err
	}
	task.Documents = docs

	if err := s.taskRepo.Create(task); err != nil {
		s.attachments.Discard(ctx, docs)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// Get returns a task with resolved references.
func (s *TaskService) Get(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// Update applies a partial update after re-checking ownership. The merged
// record is validated as a whole before commit, so a partial update can never
// leave an invalid enum or an empty required field behind. New attachments are
// appended; there is no way to remove an existing one here.
func (s *TaskService) Update(ctx context.Context, subject *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !policy.CanModify(subject, task) {
		return nil, ErrTaskForbidden
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.AssignedToID != nil {
		assigneeID, err := policy.ResolveAssignee(subject, *input.AssignedToID)
		if err != nil {
			return nil, err
		}
		if err := s.ensureUserExists(assigneeID); err != nil {
			return nil, err
		}
		task.AssignedToID = assigneeID
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	newDocs, err := s.attachments.Attach(ctx, len(task.Documents), input.Files)
	if err != nil {
		return nil, err
	}
	task.Documents = append(task.Documents, newDocs...)

	if err := s.taskRepo.Update(task); err != nil {
		s.attachments.Discard(ctx, newDocs)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// Delete removes a task after re-checking ownership. Attachment rows go with
// the task row in one transaction; blob removal is best-effort afterwards.
func (s *TaskService) Delete(ctx context.Context, subject *models.User, taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if !policy.CanDelete(subject, task) {
		return ErrTaskForbidden
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.attachments.Discard(ctx, task.Documents)

	return nil
}

// List returns tasks visible to the subject, filtered, sorted and paginated.
func (s *TaskService) List(subject *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:    input.Status,
		Priority:  input.Priority,
		SortField: input.SortField,
		SortOrder: input.SortOrder,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}

	scope := policy.ScopeFor(subject)
	if !scope.All {
		filter.VisibleTo = &scope.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

func (s *TaskService) ensureUserExists(id uint64) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

// validateTask checks the full record. Runs on create and on the merged
// result of every partial update.
func validateTask(task *models.Task) error {
	if task.Title == "" {
		return ErrTitleRequired
	}
	if task.Description == "" {
		return ErrDescriptionRequired
	}
	if task.DueDate.IsZero() {
		return ErrDueDateRequired
	}
	if !task.Status.Valid() {
		return ErrInvalidStatus
	}
	if !task.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
