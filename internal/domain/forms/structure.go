package forms

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Every structural row carries FormVersionID so a version's graph can be loaded
// and replaced without walking parent links.

type Stage struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID       uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	Name                string         `gorm:"column:name;not null" json:"name"`
	IsInitial           bool           `gorm:"column:is_initial;not null;default:false" json:"is_initial"`
	Position            int            `gorm:"column:position;not null;default:0" json:"order"`
	VisibilityCondition datatypes.JSON `gorm:"type:jsonb;column:visibility_condition" json:"visibility_condition,omitempty"`
}

func (Stage) TableName() string { return "form_stage" }

type Section struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID       uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	StageID             uuid.UUID      `gorm:"type:uuid;column:stage_id;not null;index" json:"stage_id"`
	Name                string         `gorm:"column:name" json:"name"`
	Position            int            `gorm:"column:position;not null;default:0" json:"order"`
	VisibilityCondition datatypes.JSON `gorm:"type:jsonb;column:visibility_condition" json:"visibility_condition,omitempty"`
}

func (Section) TableName() string { return "form_section" }

type Field struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID       uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	SectionID           uuid.UUID      `gorm:"type:uuid;column:section_id;not null;index" json:"section_id"`
	FieldTypeID         uuid.UUID      `gorm:"type:uuid;column:field_type_id;not null;index" json:"field_type_id"`
	Key                 string         `gorm:"column:key" json:"key,omitempty"`
	Label               string         `gorm:"column:label" json:"label"`
	Placeholder         string         `gorm:"column:placeholder" json:"placeholder,omitempty"`
	HelperText          string         `gorm:"column:helper_text" json:"helper_text,omitempty"`
	DefaultValue        datatypes.JSON `gorm:"type:jsonb;column:default_value" json:"default_value,omitempty"`
	Position            int            `gorm:"column:position;not null;default:0" json:"order"`
	VisibilityCondition datatypes.JSON `gorm:"type:jsonb;column:visibility_condition" json:"visibility_condition,omitempty"`
}

func (Field) TableName() string { return "form_field" }

type FieldRule struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	FieldID       uuid.UUID      `gorm:"type:uuid;column:field_id;not null;index" json:"field_id"`
	InputRuleID   uuid.UUID      `gorm:"type:uuid;column:input_rule_id;not null" json:"input_rule_id"`
	RuleProps     datatypes.JSON `gorm:"type:jsonb;column:rule_props" json:"rule_props,omitempty"`
	RuleCondition datatypes.JSON `gorm:"type:jsonb;column:rule_condition" json:"rule_condition,omitempty"`
	Position      int            `gorm:"column:position;not null;default:0" json:"order"`
}

func (FieldRule) TableName() string { return "form_field_rule" }

// StageAccessRule holds JSON arrays of user, role and permission ids.
type StageAccessRule struct {
	ID                      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID           uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	StageID                 uuid.UUID      `gorm:"type:uuid;column:stage_id;not null;uniqueIndex" json:"stage_id"`
	AllowedUsers            datatypes.JSON `gorm:"type:jsonb;column:allowed_users" json:"allowed_users,omitempty"`
	AllowedRoles            datatypes.JSON `gorm:"type:jsonb;column:allowed_roles" json:"allowed_roles,omitempty"`
	AllowedPermissions      datatypes.JSON `gorm:"type:jsonb;column:allowed_permissions" json:"allowed_permissions,omitempty"`
	AllowAuthenticatedUsers bool           `gorm:"column:allow_authenticated_users;not null;default:false" json:"allow_authenticated_users"`
	EmailFieldID            *uuid.UUID     `gorm:"type:uuid;column:email_field_id" json:"email_field_id,omitempty"`
}

func (StageAccessRule) TableName() string { return "stage_access_rule" }

// StageTransition endpoints are nullable: a rewrite nulls endpoints whose
// placeholder no longer names a stage.
type StageTransition struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	FromStageID   *uuid.UUID     `gorm:"type:uuid;column:from_stage_id;index" json:"from_stage_id"`
	ToStageID     *uuid.UUID     `gorm:"type:uuid;column:to_stage_id" json:"to_stage_id"`
	ToComplete    bool           `gorm:"column:to_complete;not null;default:false" json:"to_complete"`
	Label         string         `gorm:"column:label" json:"label"`
	Condition     datatypes.JSON `gorm:"type:jsonb;column:condition" json:"condition,omitempty"`
	Position      int            `gorm:"column:position;not null;default:0" json:"order"`
}

func (StageTransition) TableName() string { return "stage_transition" }

type StageTransitionAction struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormVersionID uuid.UUID      `gorm:"type:uuid;column:form_version_id;not null;index" json:"form_version_id"`
	TransitionID  uuid.UUID      `gorm:"type:uuid;column:transition_id;not null;index" json:"transition_id"`
	ActionID      uuid.UUID      `gorm:"type:uuid;column:action_id;not null" json:"action_id"`
	ActionProps   datatypes.JSON `gorm:"type:jsonb;column:action_props" json:"action_props,omitempty"`
	Position      int            `gorm:"column:position;not null;default:0" json:"order"`
}

func (StageTransitionAction) TableName() string { return "stage_transition_action" }
