package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/repository"
)

var ErrInvalidRole = errors.New("role must be one of: user, admin")

// UserService handles the admin-facing user roster.
type UserService struct {
	userRepo    repository.UserRepository
	attachments *AttachmentService
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, attachments *AttachmentService) *UserService {
	return &UserService{
		userRepo:    userRepo,
		attachments: attachments,
	}
}

// ListUsersInput represents options for listing the roster
type ListUsersInput struct {
	// ActorID is excluded from the listing.
	ActorID   uint64
	SortField string
	SortOrder string
	Page      int
	PageSize  int
}

// ListUsers returns the roster excluding the requesting admin.
func (s *UserService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(repository.UserFilter{
		ExcludeID: input.ActorID,
		SortField: input.SortField,
		SortOrder: input.SortOrder,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateUserInput represents admin provisioning of a user
type CreateUserInput struct {
	Email    string
	Password string
	Role     models.UserRole
}

// CreateUser provisions a user. Role defaults to user when unset.
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	email := NormalizeEmail(input.Email)
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateUserInput represents a partial user update; nil fields are untouched.
type UpdateUserInput struct {
	Email    *string
	Password *string
	Role     *models.UserRole
}

// UpdateUser applies a partial update to a user. Passwords are re-hashed.
func (s *UserService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email != user.Email {
			if _, err := s.userRepo.FindByEmail(email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user. Every task assigned to them is removed in the
// same transaction; tasks they created for others survive. Attachment blobs
// of the removed tasks are discarded best-effort afterwards.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	attachments, err := s.userRepo.AttachmentsForAssignee(id)
	if err != nil {
		return fmt.Errorf("failed to collect attachments: %w", err)
	}

	if err := s.userRepo.DeleteCascade(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.attachments.Discard(ctx, attachments)

	return nil
}
