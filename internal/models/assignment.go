package models

import "time"

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentSubmitted  AssignmentStatus = "submitted"
	AssignmentIncomplete AssignmentStatus = "incomplete"
	AssignmentVerified   AssignmentStatus = "verified"
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionApproved  SubmissionStatus = "approved"
)

type SubmissionSource string

const (
	SourceClient        SubmissionSource = "client"
	SourceAdminOnBehalf SubmissionSource = "admin_on_behalf_of_client"
)

// Assignment binds one TemplateFile to one Project.
type Assignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID  uint  `gorm:"not null;uniqueIndex:idx_assignment_project_template,priority:1" json:"project_id"`
	TemplateID uint  `gorm:"not null;uniqueIndex:idx_assignment_project_template,priority:2" json:"template_id"`
	AssigneeID *uint `json:"assignee_id,omitempty"`

	Status         AssignmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	AssignedByID   uint             `json:"assigned_by_id"`
	AssignedAt     time.Time        `json:"assigned_at"`
	VerifiedByID   *uint            `json:"verified_by_id,omitempty"`
	VerifiedAt     *time.Time       `json:"verified_at,omitempty"`
	CurrentRemarks *string          `gorm:"type:text" json:"current_remarks"`

	// bumped on every transition; guards against lost updates
	Revision int `gorm:"not null;default:0" json:"revision"`

	Template *TemplateFile `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// Submission is one uploaded version under an Assignment. Rows are never
// deleted; only IsLatest and the review fields of the latest row change.
type Submission struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	AssignmentID uint `gorm:"not null;uniqueIndex:idx_submission_version,priority:1;index" json:"assignment_id"`
	Version      int  `gorm:"not null;uniqueIndex:idx_submission_version,priority:2" json:"version"`
	IsLatest     bool `gorm:"not null;default:false" json:"is_latest"`

	Status   SubmissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Artifact `gorm:"embedded" json:"artifact"`

	UploadedByID     uint             `json:"uploaded_by_id"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	ClientComment    string           `gorm:"type:text" json:"client_comment,omitempty"`
	SubmissionSource SubmissionSource `gorm:"type:varchar(40);not null" json:"submission_source"`

	ReviewedByID  *uint      `json:"reviewed_by_id,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewRemarks *string    `gorm:"type:text" json:"review_remarks,omitempty"`
}
