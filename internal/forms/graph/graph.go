package graph

import (
	"sort"

	"github.com/google/uuid"
	"github.com/yungbote/formflow-backend/internal/domain/forms"
)

// CatalogKeys resolves catalog ids to their stable keys.
type CatalogKeys interface {
	FieldTypeKey(id uuid.UUID) string
	InputRuleKey(id uuid.UUID) string
	ActionKey(id uuid.UUID) string
}

// Graph is the in-memory structure of one form version.
type Graph struct {
	Version     *forms.FormVersion
	Stages      []*forms.Stage
	Sections    []*forms.Section
	Fields      []*forms.Field
	Rules       []*forms.FieldRule
	AccessRules []*forms.StageAccessRule
	Transitions []*forms.StageTransition
	Actions     []*forms.StageTransitionAction

	Catalog CatalogKeys

	stageByID      map[uuid.UUID]*forms.Stage
	sectionByID    map[uuid.UUID]*forms.Section
	fieldByID      map[uuid.UUID]*forms.Field
	transitionByID map[uuid.UUID]*forms.StageTransition
	sectionsOf     map[uuid.UUID][]*forms.Section
	fieldsOf       map[uuid.UUID][]*forms.Field
	rulesOf        map[uuid.UUID][]*forms.FieldRule
	accessOf       map[uuid.UUID]*forms.StageAccessRule
	transitionsOf  map[uuid.UUID][]*forms.StageTransition
	actionsOf      map[uuid.UUID][]*forms.StageTransitionAction
}

// Reindex rebuilds lookup tables and sorts children by position. Call it after
// mutating the exported slices.
func (g *Graph) Reindex() *Graph {
	sortByPosition(g.Stages, func(s *forms.Stage) int { return s.Position })
	sortByPosition(g.Sections, func(s *forms.Section) int { return s.Position })
	sortByPosition(g.Fields, func(f *forms.Field) int { return f.Position })
	sortByPosition(g.Rules, func(r *forms.FieldRule) int { return r.Position })
	sortByPosition(g.Transitions, func(t *forms.StageTransition) int { return t.Position })
	sortByPosition(g.Actions, func(a *forms.StageTransitionAction) int { return a.Position })

	g.stageByID = make(map[uuid.UUID]*forms.Stage, len(g.Stages))
	for _, s := range g.Stages {
		g.stageByID[s.ID] = s
	}
	g.sectionByID = make(map[uuid.UUID]*forms.Section, len(g.Sections))
	g.sectionsOf = map[uuid.UUID][]*forms.Section{}
	for _, s := range g.Sections {
		g.sectionByID[s.ID] = s
		g.sectionsOf[s.StageID] = append(g.sectionsOf[s.StageID], s)
	}
	g.fieldByID = make(map[uuid.UUID]*forms.Field, len(g.Fields))
	g.fieldsOf = map[uuid.UUID][]*forms.Field{}
	for _, f := range g.Fields {
		g.fieldByID[f.ID] = f
		g.fieldsOf[f.SectionID] = append(g.fieldsOf[f.SectionID], f)
	}
	g.rulesOf = map[uuid.UUID][]*forms.FieldRule{}
	for _, r := range g.Rules {
		g.rulesOf[r.FieldID] = append(g.rulesOf[r.FieldID], r)
	}
	g.accessOf = make(map[uuid.UUID]*forms.StageAccessRule, len(g.AccessRules))
	for _, a := range g.AccessRules {
		g.accessOf[a.StageID] = a
	}
	g.transitionByID = make(map[uuid.UUID]*forms.StageTransition, len(g.Transitions))
	g.transitionsOf = map[uuid.UUID][]*forms.StageTransition{}
	for _, t := range g.Transitions {
		g.transitionByID[t.ID] = t
		if t.FromStageID != nil {
			g.transitionsOf[*t.FromStageID] = append(g.transitionsOf[*t.FromStageID], t)
		}
	}
	g.actionsOf = map[uuid.UUID][]*forms.StageTransitionAction{}
	for _, a := range g.Actions {
		g.actionsOf[a.TransitionID] = append(g.actionsOf[a.TransitionID], a)
	}
	return g
}

func sortByPosition[T any](rows []T, pos func(T) int) {
	sort.SliceStable(rows, func(i, j int) bool { return pos(rows[i]) < pos(rows[j]) })
}

func (g *Graph) Stage(id uuid.UUID) *forms.Stage { return g.stageByID[id] }

func (g *Graph) Section(id uuid.UUID) *forms.Section { return g.sectionByID[id] }

func (g *Graph) Field(id uuid.UUID) *forms.Field { return g.fieldByID[id] }

func (g *Graph) Transition(id uuid.UUID) *forms.StageTransition { return g.transitionByID[id] }

// InitialStage returns the stage flagged is_initial, or nil.
func (g *Graph) InitialStage() *forms.Stage {
	for _, s := range g.Stages {
		if s.IsInitial {
			return s
		}
	}
	return nil
}

func (g *Graph) SectionsOf(stageID uuid.UUID) []*forms.Section { return g.sectionsOf[stageID] }

func (g *Graph) FieldsOf(sectionID uuid.UUID) []*forms.Field { return g.fieldsOf[sectionID] }

// FieldsOfStage lists fields across all sections of a stage, in section order.
func (g *Graph) FieldsOfStage(stageID uuid.UUID) []*forms.Field {
	var out []*forms.Field
	for _, sec := range g.sectionsOf[stageID] {
		out = append(out, g.fieldsOf[sec.ID]...)
	}
	return out
}

// StageOfField returns the stage owning a field, or nil.
func (g *Graph) StageOfField(fieldID uuid.UUID) *forms.Stage {
	f := g.fieldByID[fieldID]
	if f == nil {
		return nil
	}
	sec := g.sectionByID[f.SectionID]
	if sec == nil {
		return nil
	}
	return g.stageByID[sec.StageID]
}

func (g *Graph) RulesOf(fieldID uuid.UUID) []*forms.FieldRule { return g.rulesOf[fieldID] }

func (g *Graph) AccessRuleOf(stageID uuid.UUID) *forms.StageAccessRule { return g.accessOf[stageID] }

// TransitionsFrom lists transitions leaving a stage in position order.
func (g *Graph) TransitionsFrom(stageID uuid.UUID) []*forms.StageTransition {
	return g.transitionsOf[stageID]
}

func (g *Graph) ActionsOf(transitionID uuid.UUID) []*forms.StageTransitionAction {
	return g.actionsOf[transitionID]
}

func (g *Graph) FieldTypeKey(fieldID uuid.UUID) string {
	f := g.fieldByID[fieldID]
	if f == nil || g.Catalog == nil {
		return ""
	}
	return g.Catalog.FieldTypeKey(f.FieldTypeID)
}

func (g *Graph) InputRuleKey(rule *forms.FieldRule) string {
	if rule == nil || g.Catalog == nil {
		return ""
	}
	return g.Catalog.InputRuleKey(rule.InputRuleID)
}

func (g *Graph) ActionKey(action *forms.StageTransitionAction) string {
	if action == nil || g.Catalog == nil {
		return ""
	}
	return g.Catalog.ActionKey(action.ActionID)
}

// EntityIDs lists every stage, section and field id; used for translation lookups.
func (g *Graph) EntityIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(g.Stages)+len(g.Sections)+len(g.Fields)+len(g.Transitions))
	for _, s := range g.Stages {
		out = append(out, s.ID)
	}
	for _, s := range g.Sections {
		out = append(out, s.ID)
	}
	for _, f := range g.Fields {
		out = append(out, f.ID)
	}
	for _, t := range g.Transitions {
		out = append(out, t.ID)
	}
	return out
}
