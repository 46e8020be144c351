package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/taskloop/task-tracker-api/internal/constants"
	"github.com/taskloop/task-tracker-api/internal/dto"
	apierrors "github.com/taskloop/task-tracker-api/internal/errors"
	"github.com/taskloop/task-tracker-api/internal/middleware"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/policy"
	"github.com/taskloop/task-tracker-api/internal/services"
	"github.com/taskloop/task-tracker-api/internal/utils"
)

// TaskHandler coordinates task CRUD over multipart requests.
type TaskHandler struct {
	taskService *services.TaskService
	log         *logrus.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *services.TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// CreateTask creates a new task from a multipart form, with up to three
// documents under the taskFile field.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	subject, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string `form:"title"`
		Description string `form:"description"`
		Status      string `form:"status"`
		Priority    string `form:"priority"`
		DueDate     string `form:"dueDate"`
		AssignedTo  uint64 `form:"assignedTo"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var dueDate time.Time
	if req.DueDate != "" {
		parsed, err := parseDueDate(req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Due Date should be a valid date")
			return
		}
		dueDate = parsed
	}

	task, err := h.taskService.Create(c.Request.Context(), subject, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.TaskStatus(req.Status),
		Priority:     models.TaskPriority(req.Priority),
		DueDate:      dueDate,
		AssignedToID: req.AssignedTo,
		Files:        taskFiles(c),
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// ListTasks returns tasks visible to the subject, filtered, sorted and
// paginated.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	subject, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		SortField: c.DefaultQuery("sort", "createdAt"),
		SortOrder: c.DefaultQuery("order", "desc"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !status.Valid() {
			apierrors.BadRequest(c, "Status must be one of: pending, in_progress, completed")
			return
		}
		input.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := models.TaskPriority(priorityStr)
		if !priority.Valid() {
			apierrors.BadRequest(c, "Priority must be one of: low, medium, high")
			return
		}
		input.Priority = &priority
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.List(subject, input)
	if err != nil {
		h.log.WithError(err).Error("failed to list tasks")
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// UpdateTask applies a partial update. Only fields present in the form are
// touched; new documents are appended.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	subject, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var input services.UpdateTaskInput

	if title, ok := c.GetPostForm("title"); ok {
		input.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		input.Description = &description
	}
	if statusStr, ok := c.GetPostForm("status"); ok {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}
	if priorityStr, ok := c.GetPostForm("priority"); ok {
		priority := models.TaskPriority(priorityStr)
		input.Priority = &priority
	}
	if dueDateStr, ok := c.GetPostForm("dueDate"); ok {
		parsed, err := parseDueDate(dueDateStr)
		if err != nil {
			apierrors.BadRequest(c, "Due Date should be a valid date")
			return
		}
		input.DueDate = &parsed
	}
	if assignedToStr, ok := c.GetPostForm("assignedTo"); ok {
		assignedTo, err := strconv.ParseUint(assignedToStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Assigned To should be a valid user ID")
			return
		}
		input.AssignedToID = &assignedTo
	}
	input.Files = taskFiles(c)

	task, err := h.taskService.Update(c.Request.Context(), subject, taskID, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	subject, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), subject, taskID); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTaskForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.RespondWithError(c, http.StatusNotFound,
			apierrors.NewAPIError(apierrors.ErrCodeAssigneeNotFound, "Assigned user not found"))
	case errors.Is(err, policy.ErrAssigneeRequired):
		apierrors.BadRequest(c, "Assigned user is required for admin")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDescriptionRequired),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTooManyFiles):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeTooManyFiles, err.Error())
	case errors.Is(err, services.ErrUnsupportedFileType):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeUnsupportedFileType, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeFileTooLarge, err.Error())
	default:
		h.log.WithError(err).Error("task operation failed")
		apierrors.InternalError(c, "")
	}
}

// taskFiles pulls the uploaded documents out of the multipart form, if any.
func taskFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[constants.UploadFormField]
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
