package i18n

import (
	"time"

	"github.com/google/uuid"
)

// Translation keys used for structural entities.
const (
	KeyName        = "name"
	KeyLabel       = "label"
	KeyPlaceholder = "placeholder"
	KeyHelperText  = "helper_text"
)

type Translation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID   uuid.UUID `gorm:"type:uuid;column:entity_id;not null;uniqueIndex:idx_translation_key,priority:1" json:"entity_id"`
	LanguageID string    `gorm:"column:language_id;not null;uniqueIndex:idx_translation_key,priority:2" json:"language_id"`
	Key        string    `gorm:"column:key;not null;uniqueIndex:idx_translation_key,priority:3" json:"key"`
	Text       string    `gorm:"column:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Translation) TableName() string { return "translation" }
