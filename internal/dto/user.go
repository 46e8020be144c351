package dto

import (
	"time"

	"github.com/taskloop/task-tracker-api/internal/models"
)

// UserRef is the minimal user projection embedded in task responses.
// The password hash never leaves the model layer.
type UserRef struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64          `json:"id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UserListResponse represents a paginated roster of users
type UserListResponse struct {
	Users       []UserDTO `json:"users"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	TotalUsers  int64     `json:"totalUsers"`
}

// ToUserRef converts a User model to its minimal projection
func ToUserRef(user models.User) UserRef {
	return UserRef{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListResponse converts a slice of users to UserListResponse
func ToUserListResponse(users []models.User, page, pageSize int, totalCount int64) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListResponse{
		Users:       items,
		TotalPages:  totalPages(totalCount, pageSize),
		CurrentPage: page,
		TotalUsers:  totalCount,
	}
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		pages++
	}
	return pages
}
