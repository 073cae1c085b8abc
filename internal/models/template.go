package models

import "time"

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
	FieldFile    FieldType = "file"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldBoolean, FieldSelect, FieldFile:
		return true
	}
	return false
}

// Artifact is a reference to a blob kept by external storage.
type Artifact struct {
	Ref         string `gorm:"column:artifact_ref;size:512;not null" json:"ref"`
	FileName    string `gorm:"column:artifact_name;size:255" json:"file_name"`
	ContentType string `gorm:"column:artifact_content_type;size:100" json:"content_type,omitempty"`
	SizeBytes   int64  `gorm:"column:artifact_size" json:"size_bytes,omitempty"`
	Checksum    string `gorm:"column:artifact_checksum;size:128" json:"checksum,omitempty"`
}

// TemplateFile is immutable once created. A new version is published by
// creating another template with SupersedesID pointing at the old one.
type TemplateFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Title        string `gorm:"size:255;not null" json:"title"`
	Category     string `gorm:"size:100" json:"category"`
	Description  string `gorm:"type:text" json:"description"`
	SupersedesID *uint  `json:"supersedes_id,omitempty"`
	CreatedByID  uint   `json:"created_by_id"`

	Attachments []TemplateAttachment `gorm:"foreignKey:TemplateID" json:"attachments"`
	Fields      []TemplateField      `gorm:"foreignKey:TemplateID" json:"fields"`
}

type TemplateAttachment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	TemplateID uint   `gorm:"index;not null" json:"template_id"`
	Position   int    `gorm:"not null" json:"position"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Artifact   `gorm:"embedded" json:"artifact"`
}

type TemplateField struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TemplateID uint      `gorm:"index;not null" json:"template_id"`
	Position   int       `gorm:"not null" json:"position"`
	Key        string    `gorm:"size:100;not null" json:"key"`
	Label      string    `gorm:"size:255;not null" json:"label"`
	Type       FieldType `gorm:"type:varchar(20);not null" json:"type"`
	Mandatory  bool      `gorm:"not null;default:false" json:"mandatory"`
	Options    string    `gorm:"type:text" json:"options,omitempty"` // comma separated, select fields only
}
