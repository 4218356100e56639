package models

import "time"

type CommentAction string

const (
	CommentProgressUpdate CommentAction = "progress_update"
	CommentStatusChange   CommentAction = "status_change"
)

// Заметка по проекту, видимая в карточке проекта.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ProjectID  uint          `gorm:"not null;index" json:"projectId"`
	UserID     uint          `json:"userId"`
	User       User          `json:"user"`
	ActionType CommentAction `gorm:"type:varchar(30);not null;index" json:"actionType"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	Progress   *int          `json:"progress,omitempty"`
}
