package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/data/repos"
	repotest "github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/domain/identity"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/eventbus"
	"github.com/yungbote/formflow-backend/internal/platform/idempotency"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

const testSecret = "test-secret"

type harness struct {
	ctx context.Context
	db  *gorm.DB
	log *logger.Logger

	identity     repos.IdentityRepo
	translations repos.TranslationRepo
	entryRepo    repos.EntryRepo

	redis *miniredis.Miniredis
	rdb   goredis.UniversalClient
	bus   eventbus.Bus

	catalog  CatalogService
	auth     AuthService
	forms    FormService
	versions VersionService
	entries  EntryService
	actions  ActionExecutor

	entryDeps EntryServiceDeps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	bus, err := eventbus.New(log, rdb, "formflow.test")
	if err != nil {
		t.Fatalf("eventbus.New: %v", err)
	}

	formRepo := repos.NewFormRepo(db, log)
	versionRepo := repos.NewFormVersionRepo(db, log)
	structureRepo := repos.NewStructureRepo(db, log)
	entryRepo := repos.NewEntryRepo(db, log)
	valueRepo := repos.NewEntryValueRepo(db, log)
	identityRepo := repos.NewIdentityRepo(db, log)
	translationRepo := repos.NewTranslationRepo(db, log)

	catalogSvc := NewCatalogService(log, repos.NewCatalogRepo(db, log))
	snap, err := catalogSvc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("catalog snapshot: %v", err)
	}

	base := aggregates.BaseDeps{DB: db, Log: log}
	drafts := aggregates.NewDraftStructureAggregate(aggregates.DraftStructureAggregateDeps{
		Base:      base,
		Forms:     formRepo,
		Versions:  versionRepo,
		Structure: structureRepo,
		Catalog:   snap,
		Props:     snap,
	})
	workflow := aggregates.NewEntryWorkflowAggregate(aggregates.EntryWorkflowAggregateDeps{
		Base:      base,
		Versions:  versionRepo,
		Structure: structureRepo,
		Entries:   entryRepo,
		Values:    valueRepo,
		Keys:      snap,
	})
	actions := NewActionExecutor(ActionExecutorDeps{Log: log, Events: bus, Timeout: 2 * time.Second})
	entryDeps := EntryServiceDeps{
		Log:          log,
		Workflow:     workflow,
		Versions:     versionRepo,
		Structure:    structureRepo,
		Entries:      entryRepo,
		Values:       valueRepo,
		Translations: translationRepo,
		Catalog:      catalogSvc,
		Actions:      actions,
		Idempotency:  idempotency.NewRedisStore(rdb, idempotency.WithPrefix("test:idem")),
	}

	return &harness{
		ctx:          ctx,
		db:           db,
		log:          log,
		identity:     identityRepo,
		translations: translationRepo,
		entryRepo:    entryRepo,
		redis:        mr,
		rdb:          rdb,
		bus:          bus,
		catalog:      catalogSvc,
		auth:         NewAuthService(log, identityRepo, testSecret, time.Hour),
		forms:        NewFormService(log, formRepo, versionRepo, structureRepo, catalogSvc),
		versions:     NewVersionService(log, drafts, versionRepo, structureRepo, translationRepo, catalogSvc),
		entries:      NewEntryService(entryDeps),
		actions:      actions,
		entryDeps:    entryDeps,
	}
}

func (h *harness) caller(t *testing.T, email string, permissions ...string) *access.Caller {
	t.Helper()
	u := repotest.SeedUser(t, h.ctx, h.db, email)
	for _, key := range permissions {
		if err := h.identity.GrantPermission(dbctx.Context{Ctx: h.ctx}, u.ID, repotest.PermissionID(key)); err != nil {
			t.Fatalf("GrantPermission: %v", err)
		}
	}
	c, err := h.auth.LoadCaller(h.ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadCaller: %v", err)
	}
	return c
}

func (h *harness) manager(t *testing.T) *access.Caller {
	t.Helper()
	return h.caller(t, "manager@example.com", identity.PermissionFormsManage)
}

// publish creates a form with one published version holding p.
func (h *harness) publish(t *testing.T, name string, p graph.StructurePayload) (*types.Form, *VersionView) {
	t.Helper()
	form, err := h.forms.CreateForm(h.ctx, name, "test", nil)
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	created, err := h.versions.CreateVersion(h.ctx, form.ID, false)
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	rewritten, err := h.versions.RewriteDraft(h.ctx, created.Version.ID, p)
	if err != nil {
		t.Fatalf("RewriteDraft: %v", err)
	}
	if _, err := h.versions.PublishDraft(h.ctx, created.Version.ID, nil); err != nil {
		t.Fatalf("PublishDraft: %v", err)
	}
	return form, rewritten
}

func strPtr(s string) *string { return &s }

// emailPayload is a public intake stage with an email field, a review stage
// open to the submitter by email match, then completion.
func emailPayload() graph.StructurePayload {
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
					Fields: []graph.FieldPayload{{
						ID:          "tmp-email",
						FieldTypeID: repotest.FieldTypeID("email").String(),
						Label:       "Email",
						Placeholder: "you@example.com",
						Rules:       []graph.FieldRulePayload{{InputRuleID: repotest.InputRuleID("required").String()}},
					}},
				}},
			},
			{
				ID:         "tmp-confirm",
				Name:       "Confirm",
				AccessRule: &graph.AccessRulePayload{EmailFieldID: strPtr("tmp-email")},
				Sections: []graph.SectionPayload{{
					ID:   "tmp-answers",
					Name: "Answers",
					Fields: []graph.FieldPayload{{
						ID:          "tmp-agree",
						FieldTypeID: repotest.FieldTypeID("checkbox").String(),
						Label:       "I agree",
					}},
				}},
			},
		},
		Transitions: []graph.TransitionPayload{
			{
				ID:          "tmp-next",
				FromStageID: "tmp-intake",
				ToStageID:   strPtr("tmp-confirm"),
				Label:       "Next",
				Condition:   json.RawMessage(`{"field":"tmp-email","operator":"is_not_empty"}`),
				Actions: []graph.TransitionActionPayload{
					{ActionID: repotest.ActionID("publish_event").String(), ActionProps: json.RawMessage(`{"event":"intake.received"}`)},
					{ActionID: repotest.ActionID("log").String()},
				},
			},
			{
				ID:          "tmp-finish",
				FromStageID: "tmp-confirm",
				ToComplete:  true,
				Label:       "Finish",
			},
		},
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}
