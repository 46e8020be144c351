package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether the status is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority     TaskPriority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate      time.Time      `gorm:"not null" json:"dueDate"`
	AssignedToID uint64         `gorm:"not null;index" json:"assignedToId"`
	CreatedByID  uint64         `gorm:"not null;index" json:"createdById"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTo User         `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	CreatedBy  User         `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Documents  []Attachment `gorm:"foreignKey:TaskID" json:"documents,omitempty"`
}
