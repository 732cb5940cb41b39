package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/domain/forms"
	"github.com/yungbote/formflow-backend/internal/forms/refs"
	"gorm.io/datatypes"
)

const buildOp = "Forms.Graph.Build"

// Catalog reports which catalog ids exist.
type Catalog interface {
	HasFieldType(id uuid.UUID) bool
	HasInputRule(id uuid.UUID) bool
	HasAction(id uuid.UUID) bool
}

type BuildOptions struct {
	VersionID uuid.UUID
	// Current is the graph being replaced. Payload ids naming an entity of the
	// same kind in Current keep that id; all other tokens get fresh ids.
	Current *Graph
	// Catalog validates catalog references; nil skips the checks.
	Catalog Catalog
	NewID   func() uuid.UUID
}

// Build materializes a payload into a graph in six ordered passes: stages,
// sections and fields, field rules, access rules, deferred condition/props
// blobs, then transitions and their actions. The returned maps record every
// payload token's assigned id.
func Build(p StructurePayload, opts BuildOptions) (*Graph, refs.Maps, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	b := &builder{
		opts: opts,
		maps: refs.NewMaps(),
		out:  &Graph{},
		seen: map[string]map[string]bool{},
		used: map[uuid.UUID]bool{},
	}
	if err := b.run(p); err != nil {
		return nil, refs.Maps{}, err
	}
	return b.out.Reindex(), b.maps, nil
}

type deferredBlob struct {
	target *datatypes.JSON
	raw    json.RawMessage
	what   string
}

type builder struct {
	opts     BuildOptions
	maps     refs.Maps
	out      *Graph
	seen     map[string]map[string]bool
	used     map[uuid.UUID]bool
	deferred []deferredBlob
}

func (b *builder) run(p StructurePayload) error {
	if err := b.stages(p.Stages); err != nil {
		return err
	}
	if err := b.sectionsAndFields(p.Stages); err != nil {
		return err
	}
	if err := b.fieldRules(p.Stages); err != nil {
		return err
	}
	if err := b.accessRules(p.Stages); err != nil {
		return err
	}
	if err := b.resolveDeferred(); err != nil {
		return err
	}
	return b.transitions(p.Transitions)
}

// assign picks the id for a payload token. kind keys duplicate detection.
func (b *builder) assign(kind string, role refs.Role, token string, exists func(uuid.UUID) bool) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token != "" {
		if b.seen[kind] == nil {
			b.seen[kind] = map[string]bool{}
		}
		if b.seen[kind][token] {
			return uuid.Nil, validation(fmt.Sprintf("duplicate %s id %q", kind, token))
		}
		b.seen[kind][token] = true
	}

	id := uuid.Nil
	parsed, perr := uuid.Parse(token)
	if perr == nil && exists != nil && exists(parsed) && !b.used[parsed] {
		id = parsed
	}
	if id == uuid.Nil {
		id = b.opts.NewID()
	}
	b.used[id] = true

	if token != "" {
		if m := roleMap(b.maps, role); m != nil {
			m[token] = id.String()
			if perr == nil {
				m[parsed.String()] = id.String()
			}
		}
	}
	return id, nil
}

func roleMap(m refs.Maps, role refs.Role) map[string]string {
	switch role {
	case refs.RoleStage:
		return m.Stages
	case refs.RoleSection:
		return m.Sections
	case refs.RoleField:
		return m.Fields
	case refs.RoleTransition:
		return m.Transitions
	default:
		return nil
	}
}

func (b *builder) existsIn(kind string) func(uuid.UUID) bool {
	cur := b.opts.Current
	if cur == nil {
		return nil
	}
	switch kind {
	case "stage":
		return func(id uuid.UUID) bool { return cur.Stage(id) != nil }
	case "section":
		return func(id uuid.UUID) bool { return cur.Section(id) != nil }
	case "field":
		return func(id uuid.UUID) bool { return cur.Field(id) != nil }
	case "transition":
		return func(id uuid.UUID) bool { return cur.Transition(id) != nil }
	case "rule":
		ids := map[uuid.UUID]bool{}
		for _, r := range cur.Rules {
			ids[r.ID] = true
		}
		return func(id uuid.UUID) bool { return ids[id] }
	case "action":
		ids := map[uuid.UUID]bool{}
		for _, a := range cur.Actions {
			ids[a.ID] = true
		}
		return func(id uuid.UUID) bool { return ids[id] }
	}
	return nil
}

func (b *builder) later(target *datatypes.JSON, raw json.RawMessage, what string) {
	b.deferred = append(b.deferred, deferredBlob{target: target, raw: raw, what: what})
}

// pass 1
func (b *builder) stages(stages []StagePayload) error {
	exists := b.existsIn("stage")
	initials := 0
	for i, sp := range stages {
		id, err := b.assign("stage", refs.RoleStage, sp.ID, exists)
		if err != nil {
			return err
		}
		st := &forms.Stage{
			ID:            id,
			FormVersionID: b.opts.VersionID,
			Name:          strings.TrimSpace(sp.Name),
			IsInitial:     sp.IsInitial,
			Position:      position(sp.Order, i),
		}
		if st.IsInitial {
			initials++
		}
		b.out.Stages = append(b.out.Stages, st)
		b.later(&st.VisibilityCondition, sp.VisibilityCondition, "stage visibility_condition")
	}
	if initials != 1 {
		return validation(fmt.Sprintf("structure must have exactly one initial stage, got %d", initials))
	}
	return nil
}

// pass 2; relies on b.out.Stages still being in payload order.
func (b *builder) sectionsAndFields(stages []StagePayload) error {
	sectionExists := b.existsIn("section")
	fieldExists := b.existsIn("field")
	for i, sp := range stages {
		stage := b.out.Stages[i]
		for j, secp := range sp.Sections {
			secID, err := b.assign("section", refs.RoleSection, secp.ID, sectionExists)
			if err != nil {
				return err
			}
			sec := &forms.Section{
				ID:            secID,
				FormVersionID: b.opts.VersionID,
				StageID:       stage.ID,
				Name:          strings.TrimSpace(secp.Name),
				Position:      position(secp.Order, j),
			}
			b.out.Sections = append(b.out.Sections, sec)
			b.later(&sec.VisibilityCondition, secp.VisibilityCondition, "section visibility_condition")

			for k, fp := range secp.Fields {
				typeID, err := b.catalogRef(fp.FieldTypeID, "field type", b.hasFieldType)
				if err != nil {
					return err
				}
				fieldID, err := b.assign("field", refs.RoleField, fp.ID, fieldExists)
				if err != nil {
					return err
				}
				f := &forms.Field{
					ID:            fieldID,
					FormVersionID: b.opts.VersionID,
					SectionID:     sec.ID,
					FieldTypeID:   typeID,
					Key:           strings.TrimSpace(fp.Key),
					Label:         fp.Label,
					Placeholder:   fp.Placeholder,
					HelperText:    fp.HelperText,
					DefaultValue:  rawJSON(fp.DefaultValue),
					Position:      position(fp.Order, k),
				}
				b.out.Fields = append(b.out.Fields, f)
				b.later(&f.VisibilityCondition, fp.VisibilityCondition, "field visibility_condition")
			}
		}
	}
	return nil
}

// pass 3; fields were appended in payload order so a running index lines up.
func (b *builder) fieldRules(stages []StagePayload) error {
	exists := b.existsIn("rule")
	idx := 0
	for _, sp := range stages {
		for _, secp := range sp.Sections {
			for _, fp := range secp.Fields {
				field := b.out.Fields[idx]
				idx++
				for r, rp := range fp.Rules {
					ruleTypeID, err := b.catalogRef(rp.InputRuleID, "input rule", b.hasInputRule)
					if err != nil {
						return err
					}
					id, err := b.assign("rule", refs.RoleNone, rp.ID, exists)
					if err != nil {
						return err
					}
					rule := &forms.FieldRule{
						ID:            id,
						FormVersionID: b.opts.VersionID,
						FieldID:       field.ID,
						InputRuleID:   ruleTypeID,
						Position:      position(rp.Order, r),
					}
					b.out.Rules = append(b.out.Rules, rule)
					b.later(&rule.RuleProps, rp.RuleProps, "rule_props")
					b.later(&rule.RuleCondition, rp.RuleCondition, "rule_condition")
				}
			}
		}
	}
	return nil
}

// pass 4
func (b *builder) accessRules(stages []StagePayload) error {
	for i, sp := range stages {
		ap := sp.AccessRule
		if ap == nil {
			continue
		}
		rule := &forms.StageAccessRule{
			ID:                      b.opts.NewID(),
			FormVersionID:           b.opts.VersionID,
			StageID:                 b.out.Stages[i].ID,
			AllowedUsers:            idList(ap.AllowedUsers),
			AllowedRoles:            idList(ap.AllowedRoles),
			AllowedPermissions:      idList(ap.AllowedPermissions),
			AllowAuthenticatedUsers: ap.AllowAuthenticatedUsers,
		}
		if ap.EmailFieldID != nil {
			rule.EmailFieldID = b.resolveRef(*ap.EmailFieldID, refs.RoleField)
		}
		b.out.AccessRules = append(b.out.AccessRules, rule)
	}
	return nil
}

// pass 5
func (b *builder) resolveDeferred() error {
	for _, d := range b.deferred {
		out, err := b.resolveBlob(d.raw)
		if err != nil {
			return validation(fmt.Sprintf("invalid %s: %v", d.what, err))
		}
		*d.target = out
	}
	b.deferred = nil
	return nil
}

// pass 6
func (b *builder) transitions(transitions []TransitionPayload) error {
	exists := b.existsIn("transition")
	ids := make([]uuid.UUID, len(transitions))
	for i, tp := range transitions {
		id, err := b.assign("transition", refs.RoleTransition, tp.ID, exists)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	actionExists := b.existsIn("action")
	for i, tp := range transitions {
		if strings.TrimSpace(tp.FromStageID) == "" {
			return validation("transition from_stage_id is required")
		}
		if !tp.ToComplete && (tp.ToStageID == nil || strings.TrimSpace(*tp.ToStageID) == "") {
			return validation("transition must set to_stage_id or to_complete")
		}
		cond, err := b.resolveBlob(tp.Condition)
		if err != nil {
			return validation(fmt.Sprintf("invalid transition condition: %v", err))
		}
		t := &forms.StageTransition{
			ID:            ids[i],
			FormVersionID: b.opts.VersionID,
			FromStageID:   b.resolveRef(tp.FromStageID, refs.RoleStage),
			ToComplete:    tp.ToComplete,
			Label:         tp.Label,
			Condition:     cond,
			Position:      position(tp.Order, i),
		}
		if !tp.ToComplete {
			t.ToStageID = b.resolveRef(*tp.ToStageID, refs.RoleStage)
		}
		b.out.Transitions = append(b.out.Transitions, t)

		for j, acp := range tp.Actions {
			actionTypeID, err := b.catalogRef(acp.ActionID, "action", b.hasAction)
			if err != nil {
				return err
			}
			id, err := b.assign("action", refs.RoleNone, acp.ID, actionExists)
			if err != nil {
				return err
			}
			props, err := b.resolveBlob(acp.ActionProps)
			if err != nil {
				return validation(fmt.Sprintf("invalid action_props: %v", err))
			}
			b.out.Actions = append(b.out.Actions, &forms.StageTransitionAction{
				ID:            id,
				FormVersionID: b.opts.VersionID,
				TransitionID:  t.ID,
				ActionID:      actionTypeID,
				ActionProps:   props,
				Position:      position(acp.Order, j),
			})
		}
	}
	return nil
}

// resolveRef applies the null-unresolved-placeholder policy to a single reference.
func (b *builder) resolveRef(token string, role refs.Role) *uuid.UUID {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	resolved, keep := refs.ResolveToken(token, role, b.maps, refs.NullUnresolvedPlaceholders)
	if !keep {
		return nil
	}
	id, err := uuid.Parse(resolved)
	if err != nil {
		return nil
	}
	return &id
}

func (b *builder) resolveBlob(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	out, err := refs.ResolveJSON([]byte(trimmed), b.maps, refs.NullUnresolvedPlaceholders)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func (b *builder) catalogRef(raw, what string, has func(uuid.UUID) bool) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domainagg.NotFound(buildOp, fmt.Sprintf("%s %q not found", what, raw))
	}
	if has != nil && !has(id) {
		return uuid.Nil, domainagg.NotFound(buildOp, fmt.Sprintf("%s %s not found", what, id))
	}
	return id, nil
}

func (b *builder) hasFieldType(id uuid.UUID) bool {
	return b.opts.Catalog == nil || b.opts.Catalog.HasFieldType(id)
}

func (b *builder) hasInputRule(id uuid.UUID) bool {
	return b.opts.Catalog == nil || b.opts.Catalog.HasInputRule(id)
}

func (b *builder) hasAction(id uuid.UUID) bool {
	return b.opts.Catalog == nil || b.opts.Catalog.HasAction(id)
}

func idList(ids []string) datatypes.JSON {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if s := strings.TrimSpace(id); s != "" {
			clean = append(clean, s)
		}
	}
	raw, _ := json.Marshal(clean)
	return datatypes.JSON(raw)
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func validation(msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, buildOp, msg, nil)
}
