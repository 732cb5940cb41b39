package graph

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/yungbote/formflow-backend/internal/forms/refs"
	"gorm.io/datatypes"
)

// ToPayload renders a stored graph as a payload carrying its real ids, so a
// client (or Clone) can resend it unchanged.
func ToPayload(g *Graph) StructurePayload {
	var p StructurePayload
	if g == nil {
		return p
	}
	if g.Version != nil {
		rev := g.Version.Revision
		p.ExpectedRevision = &rev
	}
	for _, st := range g.Stages {
		sp := StagePayload{
			ID:                  st.ID.String(),
			Name:                st.Name,
			IsInitial:           st.IsInitial,
			Order:               intPtr(st.Position),
			VisibilityCondition: raw(st.VisibilityCondition),
		}
		if ar := g.AccessRuleOf(st.ID); ar != nil {
			ap := &AccessRulePayload{
				AllowedUsers:            DecodeIDList(ar.AllowedUsers),
				AllowedRoles:            DecodeIDList(ar.AllowedRoles),
				AllowedPermissions:      DecodeIDList(ar.AllowedPermissions),
				AllowAuthenticatedUsers: ar.AllowAuthenticatedUsers,
			}
			if ar.EmailFieldID != nil {
				s := ar.EmailFieldID.String()
				ap.EmailFieldID = &s
			}
			sp.AccessRule = ap
		}
		for _, sec := range g.SectionsOf(st.ID) {
			secp := SectionPayload{
				ID:                  sec.ID.String(),
				Name:                sec.Name,
				Order:               intPtr(sec.Position),
				VisibilityCondition: raw(sec.VisibilityCondition),
			}
			for _, f := range g.FieldsOf(sec.ID) {
				fp := FieldPayload{
					ID:                  f.ID.String(),
					Key:                 f.Key,
					FieldTypeID:         f.FieldTypeID.String(),
					Label:               f.Label,
					Placeholder:         f.Placeholder,
					HelperText:          f.HelperText,
					DefaultValue:        raw(f.DefaultValue),
					Order:               intPtr(f.Position),
					VisibilityCondition: raw(f.VisibilityCondition),
				}
				for _, r := range g.RulesOf(f.ID) {
					fp.Rules = append(fp.Rules, FieldRulePayload{
						ID:            r.ID.String(),
						InputRuleID:   r.InputRuleID.String(),
						RuleProps:     raw(r.RuleProps),
						RuleCondition: raw(r.RuleCondition),
						Order:         intPtr(r.Position),
					})
				}
				secp.Fields = append(secp.Fields, fp)
			}
			sp.Sections = append(sp.Sections, secp)
		}
		p.Stages = append(p.Stages, sp)
	}
	for _, t := range g.Transitions {
		tp := TransitionPayload{
			ID:         t.ID.String(),
			ToComplete: t.ToComplete,
			Label:      t.Label,
			Condition:  raw(t.Condition),
			Order:      intPtr(t.Position),
		}
		if t.FromStageID != nil {
			tp.FromStageID = t.FromStageID.String()
		}
		if t.ToStageID != nil {
			s := t.ToStageID.String()
			tp.ToStageID = &s
		}
		for _, a := range g.ActionsOf(t.ID) {
			tp.Actions = append(tp.Actions, TransitionActionPayload{
				ID:          a.ID.String(),
				ActionID:    a.ActionID.String(),
				ActionProps: raw(a.ActionProps),
				Order:       intPtr(a.Position),
			})
		}
		p.Transitions = append(p.Transitions, tp)
	}
	return p
}

// Clone deep-copies src under a new version with every id remapped. Embedded
// references are rewritten through the returned maps.
func Clone(src *Graph, versionID uuid.UUID, newID func() uuid.UUID) (*Graph, refs.Maps, error) {
	p := ToPayload(src)
	// Transitions with nulled endpoints cannot be re-expressed; drop them.
	kept := p.Transitions[:0]
	for _, t := range p.Transitions {
		if t.FromStageID == "" || (!t.ToComplete && t.ToStageID == nil) {
			continue
		}
		kept = append(kept, t)
	}
	p.Transitions = kept
	return Build(p, BuildOptions{VersionID: versionID, NewID: newID})
}

// SkeletonPayload is the structure of a blank version: one initial stage with
// one empty section and no access rule.
func SkeletonPayload() StructurePayload {
	return StructurePayload{
		Stages: []StagePayload{{
			ID:        "stage-1",
			Name:      "Stage 1",
			IsInitial: true,
			Sections:  []SectionPayload{{ID: "section-1", Name: "Section 1"}},
		}},
	}
}

// DecodeIDList reads a JSON array of id strings; malformed input yields nil.
func DecodeIDList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func raw(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}

func intPtr(v int) *int { return &v }
