package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/data/repos"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/domain/identity"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type PublishView struct {
	Version *types.FormVersion `json:"version"`
	Demoted []uuid.UUID        `json:"demoted"`
	Policy  string             `json:"demotion_policy"`
}

type VersionService interface {
	CreateVersion(ctx context.Context, formID uuid.UUID, copyFromCurrent bool) (*VersionView, error)
	RewriteDraft(ctx context.Context, versionID uuid.UUID, payload graph.StructurePayload) (*VersionView, error)
	PublishDraft(ctx context.Context, versionID uuid.UUID, expectedRevision *int) (*PublishView, error)
	GetVersion(ctx context.Context, versionID uuid.UUID) (*VersionView, error)
	// GetInitialStageStructure renders the initial stage for caller. Drafts are
	// only visible to callers holding forms.manage, as a preview.
	GetInitialStageStructure(ctx context.Context, versionID uuid.UUID, caller *access.Caller, languageID string) (*StageView, error)
}

type versionService struct {
	log          *logger.Logger
	drafts       aggregates.DraftStructureAggregate
	versions     repos.FormVersionRepo
	structure    repos.StructureRepo
	translations repos.TranslationRepo
	catalog      CatalogService
}

func NewVersionService(
	log *logger.Logger,
	drafts aggregates.DraftStructureAggregate,
	versions repos.FormVersionRepo,
	structure repos.StructureRepo,
	translations repos.TranslationRepo,
	catalog CatalogService,
) VersionService {
	return &versionService{
		log:          log.With("service", "VersionService"),
		drafts:       drafts,
		versions:     versions,
		structure:    structure,
		translations: translations,
		catalog:      catalog,
	}
}

func (s *versionService) CreateVersion(ctx context.Context, formID uuid.UUID, copyFromCurrent bool) (*VersionView, error) {
	res, err := s.drafts.CreateVersion(ctx, aggregates.CreateVersionInput{
		FormID:          formID,
		CopyFromCurrent: copyFromCurrent,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("version created",
		"form_id", formID,
		"version_id", res.Version.ID,
		"version_number", res.Version.VersionNumber,
		"copied", copyFromCurrent,
	)
	return graphView(res), nil
}

func (s *versionService) RewriteDraft(ctx context.Context, versionID uuid.UUID, payload graph.StructurePayload) (*VersionView, error) {
	res, err := s.drafts.RewriteDraft(ctx, aggregates.RewriteDraftInput{
		VersionID: versionID,
		Payload:   payload,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("draft rewritten",
		"version_id", versionID,
		"revision", res.Version.Revision,
		"stages", len(res.Graph.Stages),
		"fields", len(res.Graph.Fields),
	)
	return graphView(res), nil
}

func (s *versionService) PublishDraft(ctx context.Context, versionID uuid.UUID, expectedRevision *int) (*PublishView, error) {
	res, err := s.drafts.PublishDraft(ctx, aggregates.PublishDraftInput{
		VersionID:        versionID,
		ExpectedRevision: expectedRevision,
	})
	if err != nil {
		return nil, err
	}
	demoted := res.Demoted
	if demoted == nil {
		demoted = []uuid.UUID{}
	}
	return &PublishView{Version: res.Version, Demoted: demoted, Policy: string(res.Policy)}, nil
}

func (s *versionService) GetVersion(ctx context.Context, versionID uuid.UUID) (*VersionView, error) {
	const op = "Forms.GetVersion"
	version, g, err := s.load(ctx, op, versionID)
	if err != nil {
		return nil, err
	}
	return &VersionView{Version: version, Structure: graph.ToPayload(g)}, nil
}

func (s *versionService) GetInitialStageStructure(ctx context.Context, versionID uuid.UUID, caller *access.Caller, languageID string) (*StageView, error) {
	const op = "Forms.GetInitialStageStructure"
	version, g, err := s.load(ctx, op, versionID)
	if err != nil {
		return nil, err
	}
	initial := g.InitialStage()
	if initial == nil {
		return nil, domainagg.NotFound(op, "version has no initial stage")
	}

	preview := version.IsDraft() && caller.HasPermission(identity.PermissionFormsManage)
	if version.IsDraft() && !preview {
		return nil, domainagg.InvalidState(op, "version is not published")
	}
	if !preview && !access.CanAccess(access.TargetFor(g, initial.ID), caller, nil) {
		return nil, domainagg.AccessDenied(op, "caller may not access the initial stage")
	}

	texts, err := s.translations.Lookup(dbctx.Context{Ctx: ctx}, g.EntityIDs(), languageID)
	if err != nil {
		return nil, fmt.Errorf("lookup translations: %w", err)
	}
	return BuildStageView(g, initial.ID, texts), nil
}

func (s *versionService) load(ctx context.Context, op string, versionID uuid.UUID) (*types.FormVersion, *graph.Graph, error) {
	if versionID == uuid.Nil {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "missing version_id", nil)
	}
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	version, err := s.versions.GetByID(dbc, versionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get version: %w", err)
	}
	if version == nil {
		return nil, nil, domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", versionID))
	}
	g, err := s.structure.LoadGraph(dbc, version)
	if err != nil {
		return nil, nil, fmt.Errorf("load graph: %w", err)
	}
	g.Catalog = snap
	return version, g, nil
}

func graphView(res aggregates.VersionGraphResult) *VersionView {
	maps := res.IDMap
	return &VersionView{
		Version:   res.Version,
		Structure: graph.ToPayload(res.Graph),
		IDMap:     &maps,
	}
}
