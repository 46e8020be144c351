package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment is a document stored alongside a task. It has no lifecycle of its
// own: rows are written with the owning task and removed when the task goes.
type Attachment struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	TaskID     uint64         `gorm:"not null;index" json:"taskId"`
	FileName   string         `gorm:"type:varchar(255);not null" json:"fileName"`
	FileURL    string         `gorm:"type:varchar(512);not null" json:"fileUrl"`
	UploadDate time.Time      `json:"uploadDate"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
