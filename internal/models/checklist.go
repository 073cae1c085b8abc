package models

import "time"

type ChecklistStatus string

const (
	ChecklistDraft                ChecklistStatus = "draft"
	ChecklistInProgress           ChecklistStatus = "in_progress"
	ChecklistReadyForVerification ChecklistStatus = "ready_for_verification"
	ChecklistVerifiedPassed       ChecklistStatus = "verified_passed"
	ChecklistVerifiedFailed       ChecklistStatus = "verified_failed"
	ChecklistFinalized            ChecklistStatus = "finalized"
	ChecklistSuperseded           ChecklistStatus = "superseded"
)

type ItemVerification string

const (
	ItemAccepted           ItemVerification = "accepted"
	ItemNeedsClarification ItemVerification = "needs_clarification"
)

type FileStatus string

const (
	FileUploaded    FileStatus = "uploaded"
	FileSubmitted   FileStatus = "submitted"
	FileUnderReview FileStatus = "under_review"
	FileResponded   FileStatus = "responded"
	FileResubmitted FileStatus = "resubmitted"
	FileVerified    FileStatus = "verified"
	FileClosed      FileStatus = "closed"
)

// ChecklistInstance is one filled-out copy of a multi-field template for a project.
type ChecklistInstance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID  uint  `gorm:"not null;index:idx_checklist_project_template" json:"project_id"`
	TemplateID uint  `gorm:"not null;index:idx_checklist_project_template" json:"template_id"`
	Version    int   `gorm:"not null;default:1" json:"version"`
	PreviousID *uint `json:"previous_id,omitempty"`

	Status               ChecklistStatus `gorm:"type:varchar(30);not null" json:"status"`
	CompletenessPercent  float64         `gorm:"not null;default:0" json:"completeness_percent"`
	VerificationComments string          `gorm:"type:text" json:"verification_comments,omitempty"`
	DueAt                *time.Time      `json:"due_at,omitempty"`

	CreatedByID   uint       `json:"created_by_id"`
	SubmittedByID *uint      `json:"submitted_by_id,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	VerifiedByID  *uint      `json:"verified_by_id,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	FinalizedByID *uint      `json:"finalized_by_id,omitempty"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`

	Revision int `gorm:"not null;default:0" json:"revision"`

	Items []ChecklistItem `gorm:"foreignKey:InstanceID" json:"items,omitempty"`
}

type ChecklistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt  time.Time `json:"updated_at"`
	InstanceID uint      `gorm:"not null;index" json:"instance_id"`
	Position   int       `gorm:"not null" json:"position"`
	FieldKey   string    `gorm:"size:100;not null" json:"field_key"`
	Label      string    `gorm:"size:255;not null" json:"label"`
	Type       FieldType `gorm:"type:varchar(20);not null" json:"type"`
	Mandatory  bool      `gorm:"not null;default:false" json:"mandatory"`
	Options    string    `gorm:"type:text" json:"options,omitempty"`
	Value      string    `gorm:"type:text" json:"value"`

	VerifiedStatus  *ItemVerification `gorm:"type:varchar(30)" json:"verified_status,omitempty"`
	VerifierComment string            `gorm:"type:text" json:"verifier_comment,omitempty"`

	Files []ChecklistFile `gorm:"foreignKey:ItemID" json:"files,omitempty"`
}

// ChecklistFile is a file attached to a ChecklistItem with its own review status.
type ChecklistFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	InstanceID uint      `gorm:"not null;index" json:"instance_id"`
	ItemID     uint      `gorm:"not null;index" json:"item_id"`

	Status        FileStatus `gorm:"type:varchar(20);not null" json:"status"`
	Version       int        `gorm:"not null;default:1" json:"version"`
	Artifact      `gorm:"embedded" json:"artifact"`
	ReviewRemarks *string    `gorm:"type:text" json:"review_remarks,omitempty"`
	UploadedByID  uint       `json:"uploaded_by_id"`

	LockState `gorm:"embedded" json:"lock"`

	Revision int `gorm:"not null;default:0" json:"revision"`
}

// ChecklistFileVersion is the append-only upload history of a ChecklistFile.
type ChecklistFileVersion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FileID       uint      `gorm:"not null;uniqueIndex:idx_file_version,priority:1;index" json:"file_id"`
	Version      int       `gorm:"not null;uniqueIndex:idx_file_version,priority:2" json:"version"`
	IsLatest     bool      `gorm:"not null;default:false" json:"is_latest"`
	Artifact     `gorm:"embedded" json:"artifact"`
	UploadedByID uint      `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Comment      string    `gorm:"type:text" json:"comment,omitempty"`
}
