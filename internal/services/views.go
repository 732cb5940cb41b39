package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/domain/i18n"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/forms/refs"
	"github.com/yungbote/formflow-backend/internal/forms/validation"
)

// StageView is a stage as a client renders it. Visibility conditions are passed
// through so the client can hide sections and fields as values change.
type StageView struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	IsInitial   bool             `json:"is_initial"`
	Order       int              `json:"order"`
	Sections    []SectionView    `json:"sections"`
	Transitions []TransitionView `json:"transitions"`
}

type SectionView struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Order               int             `json:"order"`
	VisibilityCondition json.RawMessage `json:"visibility_condition,omitempty"`
	Fields              []FieldView     `json:"fields"`
}

type FieldView struct {
	ID                  uuid.UUID       `json:"id"`
	Key                 string          `json:"key,omitempty"`
	FieldTypeID         uuid.UUID       `json:"field_type_id"`
	FieldType           string          `json:"field_type"`
	Label               string          `json:"label"`
	Placeholder         string          `json:"placeholder,omitempty"`
	HelperText          string          `json:"helper_text,omitempty"`
	DefaultValue        json.RawMessage `json:"default_value,omitempty"`
	Order               int             `json:"order"`
	VisibilityCondition json.RawMessage `json:"visibility_condition,omitempty"`
	Rules               []RuleView      `json:"rules,omitempty"`
}

type RuleView struct {
	ID          uuid.UUID       `json:"id"`
	InputRuleID uuid.UUID       `json:"input_rule_id"`
	Rule        string          `json:"rule"`
	Props       json.RawMessage `json:"props,omitempty"`
	Condition   json.RawMessage `json:"condition,omitempty"`
}

type TransitionView struct {
	ID         uuid.UUID       `json:"id"`
	Label      string          `json:"label"`
	ToStageID  *uuid.UUID      `json:"to_stage_id,omitempty"`
	ToComplete bool            `json:"to_complete"`
	Condition  json.RawMessage `json:"condition,omitempty"`
}

// EntryView is an entry with the stage it waits on and everything stored so far.
type EntryView struct {
	PublicIdentifier string            `json:"public_identifier"`
	FormVersionID    uuid.UUID         `json:"form_version_id"`
	CurrentStageID   uuid.UUID         `json:"current_stage_id"`
	IsComplete       bool              `json:"is_complete"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Revision         int               `json:"revision"`
	CurrentStage     *StageView        `json:"current_stage,omitempty"`
	Values           conditions.Values `json:"values"`
}

// SubmissionView is what a submission returns, and what the idempotency cache replays.
type SubmissionView struct {
	Status           string                  `json:"status"`
	PublicIdentifier string                  `json:"public_identifier,omitempty"`
	FromStageID      uuid.UUID               `json:"from_stage_id"`
	TransitionID     *uuid.UUID              `json:"transition_id,omitempty"`
	Entry            *EntryView              `json:"entry,omitempty"`
	Errors           []validation.FieldError `json:"errors,omitempty"`
	Actions          []ActionResult          `json:"actions,omitempty"`
}

type FormSummary struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category,omitempty"`
	VersionID     uuid.UUID  `json:"version_id"`
	VersionNumber int        `json:"version_number"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

// VersionView is a version with its structure in the shape RewriteDraft accepts.
type VersionView struct {
	Version   *types.FormVersion     `json:"version"`
	Structure graph.StructurePayload `json:"structure"`
	IDMap     *refs.Maps             `json:"id_map,omitempty"`
}

// BuildStageView renders one stage of g. texts may be nil; translated strings
// replace the stored ones when present.
func BuildStageView(g *graph.Graph, stageID uuid.UUID, texts repos.Texts) *StageView {
	stage := g.Stage(stageID)
	if stage == nil {
		return nil
	}
	out := &StageView{
		ID:          stage.ID,
		Name:        translated(texts, stage.ID, i18n.KeyName, stage.Name),
		IsInitial:   stage.IsInitial,
		Order:       stage.Position,
		Sections:    []SectionView{},
		Transitions: []TransitionView{},
	}
	for _, sec := range g.SectionsOf(stageID) {
		sv := SectionView{
			ID:                  sec.ID,
			Name:                translated(texts, sec.ID, i18n.KeyName, sec.Name),
			Order:               sec.Position,
			VisibilityCondition: rawOrNil(sec.VisibilityCondition),
			Fields:              []FieldView{},
		}
		for _, f := range g.FieldsOf(sec.ID) {
			fv := FieldView{
				ID:                  f.ID,
				Key:                 f.Key,
				FieldTypeID:         f.FieldTypeID,
				FieldType:           g.FieldTypeKey(f.ID),
				Label:               translated(texts, f.ID, i18n.KeyLabel, f.Label),
				Placeholder:         translated(texts, f.ID, i18n.KeyPlaceholder, f.Placeholder),
				HelperText:          translated(texts, f.ID, i18n.KeyHelperText, f.HelperText),
				DefaultValue:        rawOrNil(f.DefaultValue),
				Order:               f.Position,
				VisibilityCondition: rawOrNil(f.VisibilityCondition),
			}
			for _, r := range g.RulesOf(f.ID) {
				fv.Rules = append(fv.Rules, RuleView{
					ID:          r.ID,
					InputRuleID: r.InputRuleID,
					Rule:        g.InputRuleKey(r),
					Props:       rawOrNil(r.RuleProps),
					Condition:   rawOrNil(r.RuleCondition),
				})
			}
			sv.Fields = append(sv.Fields, fv)
		}
		out.Sections = append(out.Sections, sv)
	}
	for _, t := range g.TransitionsFrom(stageID) {
		out.Transitions = append(out.Transitions, TransitionView{
			ID:         t.ID,
			Label:      translated(texts, t.ID, i18n.KeyLabel, t.Label),
			ToStageID:  t.ToStageID,
			ToComplete: t.ToComplete,
			Condition:  rawOrNil(t.Condition),
		})
	}
	return out
}

func buildEntryView(entry *types.Entry, g *graph.Graph, values conditions.Values, texts repos.Texts) *EntryView {
	if entry == nil {
		return nil
	}
	if values == nil {
		values = conditions.Values{}
	}
	out := &EntryView{
		PublicIdentifier: entry.PublicIdentifier,
		FormVersionID:    entry.FormVersionID,
		CurrentStageID:   entry.CurrentStageID,
		IsComplete:       entry.IsComplete,
		CompletedAt:      entry.CompletedAt,
		Revision:         entry.Revision,
		Values:           values,
	}
	if g != nil && !entry.IsComplete {
		out.CurrentStage = BuildStageView(g, entry.CurrentStageID, texts)
	}
	return out
}

func translated(texts repos.Texts, id uuid.UUID, key, fallback string) string {
	if s := texts.Get(id, key); s != "" {
		return s
	}
	return fallback
}

func rawOrNil(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 || string(j) == "null" {
		return nil
	}
	return json.RawMessage(j)
}
