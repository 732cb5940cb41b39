package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type FormService interface {
	CreateForm(ctx context.Context, name, category string, caller *access.Caller) (*types.Form, error)
	// ListAccessibleForms returns every active form whose latest published
	// version opens its initial stage to caller. caller may be nil.
	ListAccessibleForms(ctx context.Context, caller *access.Caller) ([]FormSummary, error)
}

type formService struct {
	log       *logger.Logger
	forms     repos.FormRepo
	versions  repos.FormVersionRepo
	structure repos.StructureRepo
	catalog   CatalogService
}

func NewFormService(
	log *logger.Logger,
	forms repos.FormRepo,
	versions repos.FormVersionRepo,
	structure repos.StructureRepo,
	catalog CatalogService,
) FormService {
	return &formService{
		log:       log.With("service", "FormService"),
		forms:     forms,
		versions:  versions,
		structure: structure,
		catalog:   catalog,
	}
}

func (s *formService) CreateForm(ctx context.Context, name, category string, caller *access.Caller) (*types.Form, error) {
	const op = "Forms.CreateForm"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "name is required", nil)
	}
	form := &types.Form{
		ID:       uuid.New(),
		Name:     name,
		Category: strings.TrimSpace(category),
	}
	if caller != nil && caller.UserID != uuid.Nil {
		uid := caller.UserID
		form.CreatedByUserID = &uid
	}
	created, err := s.forms.Create(dbctx.Context{Ctx: ctx}, []*types.Form{form})
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if form.CreatedByUserID != nil {
		s.log.Info("form created", "form_id", form.ID, "created_by", *form.CreatedByUserID)
	} else {
		s.log.Info("form created", "form_id", form.ID)
	}
	return created[0], nil
}

func (s *formService) ListAccessibleForms(ctx context.Context, caller *access.Caller) ([]FormSummary, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	active, err := s.forms.ListActive(dbc)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	if len(active) == 0 {
		return []FormSummary{}, nil
	}
	ids := make([]uuid.UUID, 0, len(active))
	for _, f := range active {
		ids = append(ids, f.ID)
	}
	latest, err := s.versions.LatestPublishedByForms(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("latest published versions: %w", err)
	}

	out := []FormSummary{}
	for _, f := range active {
		v := latest[f.ID]
		if v == nil {
			continue
		}
		g, err := s.structure.LoadGraph(dbc, v)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: %w", v.ID, err)
		}
		g.Catalog = snap
		initial := g.InitialStage()
		if initial == nil || !access.CanAccess(access.TargetFor(g, initial.ID), caller, nil) {
			continue
		}
		out = append(out, FormSummary{
			ID:            f.ID,
			Name:          f.Name,
			Category:      f.Category,
			VersionID:     v.ID,
			VersionNumber: v.VersionNumber,
			PublishedAt:   v.PublishedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
