package dto

import (
	"time"

	"github.com/taskloop/task-tracker-api/internal/models"
)

// AttachmentDTO represents a task document in API responses
type AttachmentDTO struct {
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	UploadDate time.Time `json:"uploadDate"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     time.Time           `json:"dueDate"`
	AssignedTo  *UserRef            `json:"assignedTo,omitempty"`
	CreatedBy   *UserRef            `json:"createdBy,omitempty"`
	Documents   []AttachmentDTO     `json:"documents"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks       []TaskDTO `json:"tasks"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	TotalTasks  int64     `json:"totalTasks"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		Documents:   make([]AttachmentDTO, 0, len(task.Documents)),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include references if preloaded. A deleted creator simply stays absent.
	if task.AssignedTo.ID != 0 {
		ref := ToUserRef(task.AssignedTo)
		dto.AssignedTo = &ref
	}
	if task.CreatedBy.ID != 0 {
		ref := ToUserRef(task.CreatedBy)
		dto.CreatedBy = &ref
	}

	for _, doc := range task.Documents {
		dto.Documents = append(dto.Documents, AttachmentDTO{
			FileName:   doc.FileName,
			FileURL:    doc.FileURL,
			UploadDate: doc.UploadDate,
		})
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:       items,
		TotalPages:  totalPages(totalCount, pageSize),
		CurrentPage: page,
		TotalTasks:  totalCount,
	}
}
