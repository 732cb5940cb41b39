package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Field type keys with built-in behaviour.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeEmail    = "email"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeSelect   = "select"
	FieldTypeMulti    = "multi_select"
	FieldTypeCheckbox = "checkbox"
)

type FieldType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key       string    `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (FieldType) TableName() string { return "field_type" }

// InputRule is a validation rule kind; PropsSchema is a JSON schema for rule_props.
type InputRule struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string         `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	PropsSchema datatypes.JSON `gorm:"type:jsonb;column:props_schema" json:"props_schema,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (InputRule) TableName() string { return "input_rule" }

type Action struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string         `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	PropsSchema datatypes.JSON `gorm:"type:jsonb;column:props_schema" json:"props_schema,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Action) TableName() string { return "action" }
