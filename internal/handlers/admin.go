package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/taskloop/task-tracker-api/internal/dto"
	apierrors "github.com/taskloop/task-tracker-api/internal/errors"
	"github.com/taskloop/task-tracker-api/internal/middleware"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/services"
	"github.com/taskloop/task-tracker-api/internal/utils"
)

// AdminHandler coordinates the admin-only user roster endpoints.
type AdminHandler struct {
	userService *services.UserService
	log         *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(userService *services.UserService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		log:         log,
	}
}

// ListUsers returns the roster, excluding the requesting admin.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	subject, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(services.ListUsersInput{
		ActorID:   subject.ID,
		SortField: c.DefaultQuery("sort", "createdAt"),
		SortOrder: c.DefaultQuery("order", "desc"),
		Page:      params.Page,
		PageSize:  params.Limit,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to list users")
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, params.Limit, total))
}

// CreateUser provisions a user with an optional role.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=32"`
		Role     string `json:"role"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.CreateUser(services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser applies a partial update to a user.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateUserRequest struct {
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password" binding:"omitempty,min=8,max=32"`
		Role     *string `json:"role"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.UpdateUser(userID, input)
	if err != nil {
		h.respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user and every task assigned to them.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		h.respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

func (h *AdminHandler) respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, "User already exists")
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		h.log.WithError(err).Error("user operation failed")
		apierrors.InternalError(c, "")
	}
}
