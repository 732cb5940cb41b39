package aggregates

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/forms/refs"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

func TestParseDemotionPolicy(t *testing.T) {
	cases := map[string]DemotionPolicy{
		"":               DemotePublishedOnly,
		"all":            DemoteAll,
		" ALL ":          DemoteAll,
		"published_only": DemotePublishedOnly,
		"bogus":          DemotePublishedOnly,
	}
	for raw, want := range cases {
		if got := ParseDemotionPolicy(raw); got != want {
			t.Fatalf("ParseDemotionPolicy(%q)=%q want %q", raw, got, want)
		}
	}
}

func TestCreateVersionBlankSkeleton(t *testing.T) {
	h := newFormsHarness(t, "")
	form := h.seedForm(t)

	first, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if first.Version.VersionNumber != 1 || first.Version.Status != types.VersionStatusDraft {
		t.Fatalf("unexpected version: %+v", first.Version)
	}
	if len(first.Graph.Stages) != 1 || !first.Graph.Stages[0].IsInitial || len(first.Graph.Sections) != 1 {
		t.Fatalf("expected one initial stage with one section, got %d stages %d sections", len(first.Graph.Stages), len(first.Graph.Sections))
	}

	second, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion second: %v", err)
	}
	if second.Version.VersionNumber != 2 {
		t.Fatalf("expected version 2, got %d", second.Version.VersionNumber)
	}

	_, err = h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found for unknown form, got %v", err)
	}
}

func TestRewriteDraftResolvesPlaceholders(t *testing.T) {
	h := newFormsHarness(t, "")
	form := h.seedForm(t)
	created, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	res, err := h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: twoStagePayload()})
	if err != nil {
		t.Fatalf("RewriteDraft: %v", err)
	}
	if res.Version.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", res.Version.Revision)
	}

	emailID, ok := res.IDMap.Lookup(refs.RoleField, "tmp-email")
	if !ok {
		t.Fatalf("tmp-email missing from id map")
	}
	reviewID, _ := res.IDMap.Lookup(refs.RoleStage, "tmp-review")

	loaded, err := h.structure.LoadGraph(dbctx.Context{Ctx: h.ctx}, h.version(t, res))
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(loaded.Stages) != 2 || len(loaded.Fields) != 3 || len(loaded.Transitions) != 2 || len(loaded.Actions) != 1 {
		t.Fatalf("unexpected graph sizes: stages=%d fields=%d transitions=%d actions=%d",
			len(loaded.Stages), len(loaded.Fields), len(loaded.Transitions), len(loaded.Actions))
	}

	var props map[string]any
	if err := json.Unmarshal(loaded.Actions[0].ActionProps, &props); err != nil {
		t.Fatalf("decode action props: %v", err)
	}
	if props["email_field_id"] != emailID {
		t.Fatalf("email_field_id not resolved: got %v want %s", props["email_field_id"], emailID)
	}
	submit := loaded.TransitionsFrom(loaded.InitialStage().ID)[0]
	if submit.ToStageID == nil || submit.ToStageID.String() != reviewID {
		t.Fatalf("transition target not resolved: %v want %s", submit.ToStageID, reviewID)
	}
}

func TestRewriteDraftIsIdempotentOnReturnedIDs(t *testing.T) {
	h := newFormsHarness(t, "")
	form := h.seedForm(t)
	created, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	first, err := h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: twoStagePayload()})
	if err != nil {
		t.Fatalf("RewriteDraft: %v", err)
	}

	again := graph.ToPayload(first.Graph)
	second, err := h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: again})
	if err != nil {
		t.Fatalf("RewriteDraft again: %v", err)
	}
	if second.Version.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", second.Version.Revision)
	}

	ids := func(g *graph.Graph) map[uuid.UUID]bool {
		out := map[uuid.UUID]bool{}
		for _, s := range g.Stages {
			out[s.ID] = true
		}
		for _, f := range g.Fields {
			out[f.ID] = true
		}
		for _, tr := range g.Transitions {
			out[tr.ID] = true
		}
		return out
	}
	before, after := ids(first.Graph), ids(second.Graph)
	if len(before) != len(after) {
		t.Fatalf("entity count changed: %d -> %d", len(before), len(after))
	}
	for id := range before {
		if !after[id] {
			t.Fatalf("id %s was not preserved", id)
		}
	}
}

func TestRewriteDraftRejections(t *testing.T) {
	h := newFormsHarness(t, "")
	form := h.seedForm(t)
	created, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	stale := 7
	_, err = h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: twoStagePayload(), ExpectedRevision: &stale})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict on stale revision, got %v", err)
	}

	badProps := twoStagePayload()
	badProps.Stages[0].Sections[0].Fields[1].Rules[0].RuleProps = json.RawMessage(`{"value":"two"}`)
	_, err = h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: badProps})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error for bad props, got %v", err)
	}

	unknownType := twoStagePayload()
	unknownType.Stages[0].Sections[0].Fields[0].FieldTypeID = uuid.NewString()
	_, err = h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: created.Version.ID, Payload: unknownType})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found for unknown field type, got %v", err)
	}

	// Failed rewrites leave the skeleton in place.
	v := h.version(t, created)
	if v.Revision != 0 {
		t.Fatalf("expected revision 0 after failed rewrites, got %d", v.Revision)
	}
	n, err := h.structure.CountStages(dbctx.Context{Ctx: h.ctx}, v.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected skeleton stage to survive: n=%d err=%v", n, err)
	}

	_, err = h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: uuid.New(), Payload: twoStagePayload()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found for unknown version, got %v", err)
	}

	if _, err := h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: v.ID}); err != nil {
		t.Fatalf("PublishDraft: %v", err)
	}
	_, err = h.drafts.RewriteDraft(h.ctx, RewriteDraftInput{VersionID: v.ID, Payload: twoStagePayload()})
	if !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("expected invalid_state rewriting a published version, got %v", err)
	}
}

func TestPublishDraft(t *testing.T) {
	h := newFormsHarness(t, DemotePublishedOnly)
	form := h.seedForm(t)
	v1 := h.publishedVersion(t, form, twoStagePayload())

	stored := h.version(t, v1)
	if stored.Status != types.VersionStatusPublished || stored.PublishedAt == nil {
		t.Fatalf("expected published with published_at, got %+v", stored)
	}

	_, err := h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: v1.Version.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("expected invalid_state publishing twice, got %v", err)
	}

	v2, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	stale := 3
	_, err = h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: v2.Version.ID, ExpectedRevision: &stale})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict on stale revision, got %v", err)
	}

	res, err := h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: v2.Version.ID})
	if err != nil {
		t.Fatalf("PublishDraft v2: %v", err)
	}
	if len(res.Demoted) != 1 || res.Demoted[0] != v1.Version.ID || res.Policy != DemotePublishedOnly {
		t.Fatalf("unexpected demotion: %+v", res)
	}
	if got := h.version(t, v1); got.Status != types.VersionStatusDraft {
		t.Fatalf("expected v1 demoted to draft, got %s", got.Status)
	}

	_, err = h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: uuid.New()})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestPublishDraftDemoteAll(t *testing.T) {
	h := newFormsHarness(t, DemoteAll)
	form := h.seedForm(t)
	dbc := dbctx.Context{Ctx: h.ctx}

	repotest.SeedVersion(t, h.ctx, h.db, form.ID, 1, types.VersionStatusDraft)
	repotest.SeedVersion(t, h.ctx, h.db, form.ID, 2, types.VersionStatusPublished)
	v3, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	res, err := h.drafts.PublishDraft(h.ctx, PublishDraftInput{VersionID: v3.Version.ID})
	if err != nil {
		t.Fatalf("PublishDraft: %v", err)
	}
	if len(res.Demoted) != 2 || res.Policy != DemoteAll {
		t.Fatalf("expected both siblings rewritten, got %+v", res)
	}
	latest, err := h.versions.LatestPublishedByForms(dbc, []uuid.UUID{form.ID})
	if err != nil {
		t.Fatalf("LatestPublishedByForms: %v", err)
	}
	if latest[form.ID] == nil || latest[form.ID].ID != v3.Version.ID {
		t.Fatalf("expected v3 as the only published version, got %+v", latest[form.ID])
	}
}

func TestCreateVersionCopiesCurrent(t *testing.T) {
	h := newFormsHarness(t, "")
	form := h.seedForm(t)
	v1 := h.publishedVersion(t, form, twoStagePayload())

	copied, err := h.drafts.CreateVersion(h.ctx, CreateVersionInput{FormID: form.ID, CopyFromCurrent: true})
	if err != nil {
		t.Fatalf("CreateVersion copy: %v", err)
	}
	if copied.Version.VersionNumber != 2 || copied.Version.Status != types.VersionStatusDraft {
		t.Fatalf("unexpected copy version: %+v", copied.Version)
	}

	src, dst := v1.Graph, copied.Graph
	if len(dst.Stages) != len(src.Stages) || len(dst.Fields) != len(src.Fields) || len(dst.Actions) != len(src.Actions) {
		t.Fatalf("copy changed shape")
	}
	srcIDs := map[uuid.UUID]bool{}
	for _, f := range src.Fields {
		srcIDs[f.ID] = true
	}
	for _, f := range dst.Fields {
		if srcIDs[f.ID] {
			t.Fatalf("copied field kept source id %s", f.ID)
		}
		if f.FormVersionID != copied.Version.ID {
			t.Fatalf("copied field points at wrong version")
		}
	}

	var props map[string]any
	if err := json.Unmarshal(dst.Actions[0].ActionProps, &props); err != nil {
		t.Fatalf("decode props: %v", err)
	}
	emailField, _ := props["email_field_id"].(string)
	parsed, err := uuid.Parse(emailField)
	if err != nil || dst.Field(parsed) == nil {
		t.Fatalf("copied props reference %q, not a field of the copy", emailField)
	}
}
