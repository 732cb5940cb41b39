package graph

import "encoding/json"

// StructurePayload is the full structure a client sends to rewrite a draft.
// Ids are either real ids carried over from a previous response or placeholders.
type StructurePayload struct {
	ExpectedRevision *int                `json:"expected_revision,omitempty"`
	Stages           []StagePayload      `json:"stages"`
	Transitions      []TransitionPayload `json:"transitions"`
}

type StagePayload struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	IsInitial           bool               `json:"is_initial"`
	Order               *int               `json:"order,omitempty"`
	VisibilityCondition json.RawMessage    `json:"visibility_condition,omitempty"`
	AccessRule          *AccessRulePayload `json:"access_rule,omitempty"`
	Sections            []SectionPayload   `json:"sections"`
}

type SectionPayload struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Order               *int            `json:"order,omitempty"`
	VisibilityCondition json.RawMessage `json:"visibility_condition,omitempty"`
	Fields              []FieldPayload  `json:"fields"`
}

type FieldPayload struct {
	ID                  string             `json:"id"`
	Key                 string             `json:"key,omitempty"`
	FieldTypeID         string             `json:"field_type_id"`
	Label               string             `json:"label"`
	Placeholder         string             `json:"placeholder,omitempty"`
	HelperText          string             `json:"helper_text,omitempty"`
	DefaultValue        json.RawMessage    `json:"default_value,omitempty"`
	Order               *int               `json:"order,omitempty"`
	VisibilityCondition json.RawMessage    `json:"visibility_condition,omitempty"`
	Rules               []FieldRulePayload `json:"rules,omitempty"`
}

type FieldRulePayload struct {
	ID            string          `json:"id,omitempty"`
	InputRuleID   string          `json:"input_rule_id"`
	RuleProps     json.RawMessage `json:"rule_props,omitempty"`
	RuleCondition json.RawMessage `json:"rule_condition,omitempty"`
	Order         *int            `json:"order,omitempty"`
}

type AccessRulePayload struct {
	AllowedUsers            []string `json:"allowed_users,omitempty"`
	AllowedRoles            []string `json:"allowed_roles,omitempty"`
	AllowedPermissions      []string `json:"allowed_permissions,omitempty"`
	AllowAuthenticatedUsers bool     `json:"allow_authenticated_users"`
	EmailFieldID            *string  `json:"email_field_id,omitempty"`
}

type TransitionPayload struct {
	ID          string                    `json:"id"`
	FromStageID string                    `json:"from_stage_id"`
	ToStageID   *string                   `json:"to_stage_id,omitempty"`
	ToComplete  bool                      `json:"to_complete"`
	Label       string                    `json:"label"`
	Condition   json.RawMessage           `json:"condition,omitempty"`
	Order       *int                      `json:"order,omitempty"`
	Actions     []TransitionActionPayload `json:"actions,omitempty"`
}

type TransitionActionPayload struct {
	ID          string          `json:"id,omitempty"`
	ActionID    string          `json:"action_id"`
	ActionProps json.RawMessage `json:"action_props,omitempty"`
	Order       *int            `json:"order,omitempty"`
}

func position(order *int, idx int) int {
	if order != nil {
		return *order
	}
	return idx
}
