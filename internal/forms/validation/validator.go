package validation

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/yungbote/formflow-backend/internal/domain/catalog"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// FieldError is one violated rule on one field.
type FieldError struct {
	FieldID string `json:"field_id"`
	RuleID  string `json:"rule_id,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result of validating a stage submission.
type Result struct {
	// Accepted holds the submitted values that belong to the stage.
	Accepted conditions.Values
	// Merged is stored values overlaid with Accepted.
	Merged conditions.Values
	Errors []FieldError
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

type Validator struct {
	rules *Registry
	types map[string]Strategy
	log   *logger.Logger
}

func New(log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{
		rules: NewRegistry(),
		types: map[string]Strategy{
			catalog.FieldTypeEmail:  skipEmpty(checkEmail),
			catalog.FieldTypeNumber: skipEmpty(checkNumeric),
			catalog.FieldTypeDate:   skipEmpty(checkDate),
		},
		log: log.With("component", "Validator"),
	}
}

// Rules exposes the rule registry so callers can add strategies.
func (v *Validator) Rules() *Registry { return v.rules }

// ValidateStage filters submitted to the stage's fields and checks every visible
// field against its type and its applicable rules.
func (v *Validator) ValidateStage(g *graph.Graph, stageID uuid.UUID, stored, submitted conditions.Values) Result {
	stageFields := g.FieldsOfStage(stageID)
	accepted := conditions.Values{}
	for _, f := range stageFields {
		if val, ok := submitted[f.ID.String()]; ok {
			accepted[f.ID.String()] = val
		}
	}
	merged := stored.Merge(accepted)
	res := Result{Accepted: accepted, Merged: merged}

	for _, sec := range g.SectionsOf(stageID) {
		if !conditions.Holds(sec.VisibilityCondition, merged) {
			continue
		}
		for _, f := range g.FieldsOf(sec.ID) {
			if !conditions.Holds(f.VisibilityCondition, merged) {
				continue
			}
			fieldID := f.ID.String()
			value := merged[fieldID]

			typeKey := g.FieldTypeKey(f.ID)
			if s, ok := v.types[typeKey]; ok {
				if msg := s.Check(value, nil); msg != "" {
					res.Errors = append(res.Errors, FieldError{FieldID: fieldID, Rule: "type:" + typeKey, Message: msg})
				}
			}

			for _, rule := range g.RulesOf(f.ID) {
				if !conditions.Holds(rule.RuleCondition, merged) {
					continue
				}
				key := g.InputRuleKey(rule)
				strategy, ok := v.rules.Lookup(key)
				if !ok {
					v.log.Warn("unknown input rule; skipping", "rule_id", rule.ID, "input_rule_id", rule.InputRuleID, "key", key)
					continue
				}
				if msg := strategy.Check(value, decodeProps(rule.RuleProps)); msg != "" {
					res.Errors = append(res.Errors, FieldError{
						FieldID: fieldID,
						RuleID:  rule.ID.String(),
						Rule:    key,
						Message: msg,
					})
				}
			}
		}
	}
	return res
}

func checkDate(value any, _ map[string]any) string {
	if _, ok := conditions.DateOf(value); !ok {
		return "Enter a valid date."
	}
	return ""
}

func decodeProps(raw []byte) map[string]any {
	props := map[string]any{}
	if len(raw) == 0 {
		return props
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		return map[string]any{}
	}
	return props
}
