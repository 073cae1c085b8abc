package models

import "time"

type LockableKind string

const (
	LockableTask          LockableKind = "task"
	LockableChecklistFile LockableKind = "checklist_file"
)

func (k LockableKind) Valid() bool {
	return k == LockableTask || k == LockableChecklistFile
}

type LockSource string

const (
	LockAuto   LockSource = "auto"
	LockManual LockSource = "manual"
)

// LockState is embedded by every lockable entity.
type LockState struct {
	IsLocked   bool       `gorm:"not null;default:false" json:"is_locked"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	LockedByID *uint      `json:"locked_by_id,omitempty"`
	LockSource LockSource `gorm:"type:varchar(20)" json:"lock_source,omitempty"`
}

type UnlockStatus string

const (
	UnlockPending  UnlockStatus = "pending"
	UnlockApproved UnlockStatus = "approved"
	UnlockRejected UnlockStatus = "rejected"
)

type UnlockRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LockableKind LockableKind `gorm:"type:varchar(30);not null;index:idx_unlock_target" json:"lockable_kind"`
	LockableID   uint         `gorm:"not null;index:idx_unlock_target" json:"lockable_id"`

	Reason        string       `gorm:"type:text;not null" json:"reason"`
	RequestedByID uint         `json:"requested_by_id"`
	Status        UnlockStatus `gorm:"type:varchar(20);not null" json:"status"`
	ReviewNote    *string      `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedByID  *uint        `json:"reviewed_by_id,omitempty"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty"`
}
