package aggregates

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	repotest "github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/forms/catalog"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

type formsHarness struct {
	ctx context.Context
	db  *gorm.DB

	forms     repos.FormRepo
	versions  repos.FormVersionRepo
	structure repos.StructureRepo
	entries   repos.EntryRepo
	values    repos.EntryValueRepo

	snapshot *catalog.Snapshot
	drafts   DraftStructureAggregate
	workflow EntryWorkflowAggregate
}

func newFormsHarness(t *testing.T, demotion DemotionPolicy) *formsHarness {
	t.Helper()
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	h := &formsHarness{
		ctx:       context.Background(),
		db:        db,
		forms:     repos.NewFormRepo(db, log),
		versions:  repos.NewFormVersionRepo(db, log),
		structure: repos.NewStructureRepo(db, log),
		entries:   repos.NewEntryRepo(db, log),
		values:    repos.NewEntryValueRepo(db, log),
	}

	cat := repos.NewCatalogRepo(db, log)
	dbc := dbctx.Context{Ctx: h.ctx}
	fieldTypes, err := cat.ListFieldTypes(dbc)
	if err != nil {
		t.Fatalf("ListFieldTypes: %v", err)
	}
	inputRules, err := cat.ListInputRules(dbc)
	if err != nil {
		t.Fatalf("ListInputRules: %v", err)
	}
	actions, err := cat.ListActions(dbc)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	h.snapshot, err = catalog.NewSnapshot(fieldTypes, inputRules, actions)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	base := BaseDeps{DB: db, Log: log}
	h.drafts = NewDraftStructureAggregate(DraftStructureAggregateDeps{
		Base:      base,
		Forms:     h.forms,
		Versions:  h.versions,
		Structure: h.structure,
		Catalog:   h.snapshot,
		Props:     h.snapshot,
		Demotion:  demotion,
	})
	h.workflow = NewEntryWorkflowAggregate(EntryWorkflowAggregateDeps{
		Base:      base,
		Versions:  h.versions,
		Structure: h.structure,
		Entries:   h.entries,
		Values:    h.values,
		Keys:      h.snapshot,
	})
	return h
}

func (h *formsHarness) seedForm(t *testing.T) *types.Form {
	t.Helper()
	return repotest.SeedForm(t, h.ctx, h.db, "Intake")
}

// publishedVersion creates, rewrites and publishes a version of form.
func (h *formsHarness) publishedVersion(t *testing.T, form *types.Form, p graph.StructurePayload) VersionGraphResult {
	t.Helper()
	created, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	rewritten, err := h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: p})
	if err != nil {
		t.Fatalf("RewriteDraft: %v", err)
	}
	if _, err := h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: created.Version.ID}); err != nil {
		t.Fatalf("PublishDraft: %v", err)
	}
	return rewritten
}

func (h *formsHarness) version(t *testing.T, res VersionGraphResult) *types.FormVersion {
	t.Helper()
	v, err := h.versions.GetByID(dbctx.Context{Ctx: h.ctx}, res.Version.ID)
	if err != nil || v == nil {
		t.Fatalf("GetByID version: v=%v err=%v", v, err)
	}
	return v
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

// twoStagePayload is a public intake stage with a required email, then a review
// stage open to any signed-in user, then completion.
func twoStagePayload() graph.StructurePayload {
	return graph.StructurePayload{
		Stages: []graph.StagePayload{
			{
				ID:         "tmp-intake",
				Name:       "Intake",
				IsInitial:  true,
				AccessRule: &graph.AccessRulePayload{},
				Sections: []graph.SectionPayload{{
					ID:   "tmp-contact",
					Name: "Contact",
					Fields: []graph.FieldPayload{
						{
							ID:          "tmp-email",
							FieldTypeID: repotest.FieldTypeID("email").String(),
							Label:       "Email",
							Rules:       []graph.FieldRulePayload{{InputRuleID: repotest.InputRuleID("required").String()}},
						},
						{
							ID:          "tmp-name",
							FieldTypeID: repotest.FieldTypeID("text").String(),
							Label:       "Name",
							Rules: []graph.FieldRulePayload{{
								InputRuleID: repotest.InputRuleID("min_length").String(),
								RuleProps:   json.RawMessage(`{"value":2}`),
							}},
						},
					},
				}},
			},
			{
				ID:         "tmp-review",
				Name:       "Review",
				AccessRule: &graph.AccessRulePayload{AllowAuthenticatedUsers: true},
				Sections: []graph.SectionPayload{{
					ID:   "tmp-decision",
					Name: "Decision",
					Fields: []graph.FieldPayload{{
						ID:          "tmp-notes",
						FieldTypeID: repotest.FieldTypeID("textarea").String(),
						Label:       "Notes",
					}},
				}},
			},
		},
		Transitions: []graph.TransitionPayload{
			{
				ID:          "tmp-submit",
				FromStageID: "tmp-intake",
				ToStageID:   strPtr("tmp-review"),
				Label:       "Submit",
				Actions: []graph.TransitionActionPayload{{
					ActionID:    repotest.ActionID("send_email").String(),
					ActionProps: json.RawMessage(`{"email_field_id":"tmp-email","subject":"Received"}`),
				}},
			},
			{
				ID:          "tmp-approve",
				FromStageID: "tmp-review",
				ToComplete:  true,
				Label:       "Approve",
				Condition:   json.RawMessage(`{"field":"tmp-notes","operator":"is_not_empty"}`),
			},
		},
	}
}
