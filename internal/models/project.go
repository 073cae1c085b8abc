package models

import "time"

type ProjectStatus string

const (
	StatusPlanned    ProjectStatus = "planned"
	StatusInProgress ProjectStatus = "in_progress"
	StatusOnApproval ProjectStatus = "on_approval"
	StatusFinished   ProjectStatus = "finished"
	StatusCancelled  ProjectStatus = "cancelled"
)

type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(50);not null" json:"status"`

	ClientID    uint `gorm:"index" json:"client_id"` // User.ID with role client
	CreatedByID uint `json:"created_by_id"`
}
