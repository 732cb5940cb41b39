package forms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VersionStatusDraft     = "draft"
	VersionStatusPublished = "published"
)

type Form struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Category   string    `gorm:"column:category;index" json:"category,omitempty"`
	IsArchived bool      `gorm:"column:is_archived;not null;default:false;index" json:"is_archived"`

	CreatedByUserID *uuid.UUID `gorm:"type:uuid;column:created_by_user_id;index" json:"created_by_user_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Form) TableName() string { return "form" }

// FormVersion is one snapshot of a form's stage graph. Only drafts are mutable.
type FormVersion struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FormID        uuid.UUID  `gorm:"type:uuid;column:form_id;not null;uniqueIndex:idx_form_version_number,priority:1" json:"form_id"`
	VersionNumber int        `gorm:"column:version_number;not null;uniqueIndex:idx_form_version_number,priority:2" json:"version_number"`
	Status        string     `gorm:"column:status;not null;default:'draft';index" json:"status"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	// Revision is bumped on every successful rewrite or publish.
	Revision int `gorm:"column:revision;not null;default:0" json:"revision"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (FormVersion) TableName() string { return "form_version" }

func (v *FormVersion) IsDraft() bool { return v != nil && v.Status == VersionStatusDraft }
