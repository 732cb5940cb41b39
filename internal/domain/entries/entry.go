package entries

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Entry struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID    uuid.UUID  `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	CurrentStageID   uuid.UUID  `gorm:"type:uuid;column:current_stage_id;not null;index" json:"current_stage_id"`
	IsComplete       bool       `gorm:"column:is_complete;not null;default:false;index" json:"is_complete"`
	PublicIdentifier string     `gorm:"column:public_identifier;not null;uniqueIndex" json:"public_identifier"`
	CreatedByUserID  *uuid.UUID `gorm:"type:uuid;column:created_by_user_id;index" json:"created_by_user_id,omitempty"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Revision guards against concurrent submissions of the same entry.
	Revision int `gorm:"column:revision;not null;default:0" json:"revision"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "entry" }

type EntryValue struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID   uuid.UUID      `gorm:"type:uuid;column:entry_id;not null;uniqueIndex:idx_entry_value_field,priority:1" json:"entry_id"`
	FieldID   uuid.UUID      `gorm:"type:uuid;column:field_id;not null;uniqueIndex:idx_entry_value_field,priority:2" json:"field_id"`
	Value     datatypes.JSON `gorm:"type:jsonb;column:value" json:"value"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (EntryValue) TableName() string { return "entry_value" }
