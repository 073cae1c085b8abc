package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	return s == TaskTodo || s == TaskInProgress || s == TaskDone
}

type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID   uint       `gorm:"not null;index" json:"project_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	AssigneeID  *uint      `json:"assignee_id,omitempty"`
	DueAt       *time.Time `gorm:"index" json:"due_at,omitempty"`
	Status      TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedByID uint       `json:"created_by_id"`

	LockState `gorm:"embedded" json:"lock"`

	Revision int `gorm:"not null;default:0" json:"revision"`
}
