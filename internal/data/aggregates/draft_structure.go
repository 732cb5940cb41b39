package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/forms/refs"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

// DemotionPolicy selects which sibling versions a publish moves back to draft.
type DemotionPolicy string

const (
	DemotePublishedOnly DemotionPolicy = "published_only"
	DemoteAll           DemotionPolicy = "all"
)

// ParseDemotionPolicy falls back to DemotePublishedOnly for unknown values.
func ParseDemotionPolicy(raw string) DemotionPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(DemoteAll)) {
		return DemoteAll
	}
	return DemotePublishedOnly
}

// PropsValidator checks rule and action props of a built graph against catalog schemas.
type PropsValidator interface {
	ValidateProps(g *graph.Graph) error
}

// DraftStructureAggregate owns form version lifecycle writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidState, CodeConflict, CodeRetryable, CodeInternal.
type DraftStructureAggregate interface {
	domainagg.Aggregate

	// CreateVersion appends a draft version numbered max+1, either copying the
	// latest version's graph or holding a one-stage skeleton.
	CreateVersion(ctx context.Context, in CreateVersionInput) (VersionGraphResult, error)

	// RewriteDraft replaces the whole graph of a draft version.
	RewriteDraft(ctx context.Context, in RewriteDraftInput) (VersionGraphResult, error)

	// PublishDraft publishes a draft and demotes its siblings per the demotion policy.
	PublishDraft(ctx context.Context, in PublishDraftInput) (PublishDraftResult, error)
}

type CreateVersionInput struct {
	FormID          uuid.UUID
	CopyFromCurrent bool
}

type RewriteDraftInput struct {
	VersionID uuid.UUID
	Payload   graph.StructurePayload
	// ExpectedRevision overrides Payload.ExpectedRevision when set.
	ExpectedRevision *int
}

type VersionGraphResult struct {
	Version *types.FormVersion
	Graph   *graph.Graph
	IDMap   refs.Maps
}

type PublishDraftInput struct {
	VersionID        uuid.UUID
	ExpectedRevision *int
}

type PublishDraftResult struct {
	Version  *types.FormVersion
	Demoted  []uuid.UUID
	Policy   DemotionPolicy
	Recorded time.Time
}

type DraftStructureAggregateDeps struct {
	Base BaseDeps

	Forms     repos.FormRepo
	Versions  repos.FormVersionRepo
	Structure repos.StructureRepo

	Catalog  graph.Catalog
	Props    PropsValidator
	Demotion DemotionPolicy
	NewID    func() uuid.UUID
}

type draftStructureAggregate struct {
	deps DraftStructureAggregateDeps
}

func NewDraftStructureAggregate(deps DraftStructureAggregateDeps) DraftStructureAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	if deps.Demotion == "" {
		deps.Demotion = DemotePublishedOnly
	}
	return &draftStructureAggregate{deps: deps}
}

func (a *draftStructureAggregate) Contract() domainagg.Contract {
	return domainagg.DraftStructureAggregateContract
}

func (a *draftStructureAggregate) ready(op string) error {
	if a.deps.Forms == nil || a.deps.Versions == nil || a.deps.Structure == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "draft structure aggregate repos not configured", nil)
	}
	return nil
}

func (a *draftStructureAggregate) CreateVersion(ctx context.Context, in CreateVersionInput) (VersionGraphResult, error) {
	const op = "Forms.DraftStructure.CreateVersion"
	var out VersionGraphResult
	if in.FormID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing form_id", nil)
	}
	if err := a.ready(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := advisoryXactLock(dbc, "form:"+in.FormID.String()); err != nil {
			return err
		}
		form, err := a.deps.Forms.GetByID(dbc, in.FormID)
		if err != nil {
			return err
		}
		if form == nil {
			return domainagg.NotFound(op, fmt.Sprintf("form not found: %s", in.FormID))
		}

		maxNumber, err := a.deps.Versions.MaxVersionNumber(dbc, form.ID)
		if err != nil {
			return err
		}
		latest, err := a.deps.Versions.Latest(dbc, form.ID)
		if err != nil {
			return err
		}
		version := &types.FormVersion{
			ID:            a.deps.NewID(),
			FormID:        form.ID,
			VersionNumber: maxNumber + 1,
			Status:        types.VersionStatusDraft,
		}
		if _, err := a.deps.Versions.Create(dbc, []*types.FormVersion{version}); err != nil {
			return err
		}

		var (
			g    *graph.Graph
			maps refs.Maps
		)
		if in.CopyFromCurrent && latest != nil {
			src, err := a.deps.Structure.LoadGraph(dbc, latest)
			if err != nil {
				return err
			}
			g, maps, err = graph.Clone(src, version.ID, a.deps.NewID)
			if err != nil {
				return err
			}
		} else {
			g, maps, err = graph.Build(graph.SkeletonPayload(), graph.BuildOptions{
				VersionID: version.ID,
				NewID:     a.deps.NewID,
			})
			if err != nil {
				return err
			}
		}
		if err := a.deps.Structure.ReplaceGraph(dbc, version.ID, g); err != nil {
			return err
		}
		g.Version = version
		out = VersionGraphResult{Version: version, Graph: g, IDMap: maps}
		return nil
	})
	return out, err
}

func (a *draftStructureAggregate) RewriteDraft(ctx context.Context, in RewriteDraftInput) (VersionGraphResult, error) {
	const op = "Forms.DraftStructure.RewriteDraft"
	var out VersionGraphResult
	if in.VersionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing version_id", nil)
	}
	if err := a.ready(op); err != nil {
		return out, err
	}
	expected := in.ExpectedRevision
	if expected == nil {
		expected = in.Payload.ExpectedRevision
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := advisoryXactLock(dbc, "form_version:"+in.VersionID.String()); err != nil {
			return err
		}
		version, err := a.lockVersion(dbc, op, in.VersionID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(version.Status, types.VersionStatusDraft); err != nil {
			return err
		}
		if err := RequireRevisionMatch(version.Revision, expected); err != nil {
			return err
		}

		current, err := a.deps.Structure.LoadGraph(dbc, version)
		if err != nil {
			return err
		}
		g, maps, err := graph.Build(in.Payload, graph.BuildOptions{
			VersionID: version.ID,
			Current:   current,
			Catalog:   a.deps.Catalog,
			NewID:     a.deps.NewID,
		})
		if err != nil {
			return err
		}
		if a.deps.Props != nil {
			if err := a.deps.Props.ValidateProps(g); err != nil {
				return err
			}
		}
		if err := a.deps.Structure.ReplaceGraph(dbc, version.ID, g); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByRevision(dbc, "form_version", version.ID, version.Revision, nil)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "form version changed during rewrite"); err != nil {
			return err
		}
		version.Revision++
		g.Version = version
		out = VersionGraphResult{Version: version, Graph: g, IDMap: maps}
		return nil
	})
	return out, err
}

func (a *draftStructureAggregate) PublishDraft(ctx context.Context, in PublishDraftInput) (PublishDraftResult, error) {
	const op = "Forms.DraftStructure.PublishDraft"
	var out PublishDraftResult
	if in.VersionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing version_id", nil)
	}
	if err := a.ready(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		version, err := a.deps.Versions.GetByID(dbc, in.VersionID)
		if err != nil {
			return err
		}
		if version == nil {
			return domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", in.VersionID))
		}
		if err := advisoryXactLock(dbc, "form:"+version.FormID.String()); err != nil {
			return err
		}
		if version, err = a.lockVersion(dbc, op, in.VersionID); err != nil {
			return err
		}
		if err := RequireStatusAllowed(version.Status, types.VersionStatusDraft); err != nil {
			return err
		}
		if err := RequireRevisionMatch(version.Revision, in.ExpectedRevision); err != nil {
			return err
		}
		stages, err := a.deps.Structure.CountStages(dbc, version.ID)
		if err != nil {
			return err
		}
		if stages == 0 {
			return InvariantError("cannot publish a version without stages")
		}

		// Siblings go first: the partial unique index admits one published row per form.
		demoted, err := a.deps.Versions.DemoteToDraft(dbc, version.FormID, version.ID, a.deps.Demotion != DemoteAll)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		ok, err := a.deps.Base.CASGuard.UpdateByRevision(dbc, "form_version", version.ID, version.Revision, map[string]any{
			"status":       types.VersionStatusPublished,
			"published_at": now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "form version changed during publish"); err != nil {
			return err
		}

		version.Status = types.VersionStatusPublished
		version.PublishedAt = &now
		version.Revision++
		out = PublishDraftResult{Version: version, Demoted: demoted, Policy: a.deps.Demotion, Recorded: now}
		return nil
	})
	if err == nil && len(out.Demoted) > 0 {
		a.deps.Base.Log.Info("publish demoted sibling versions",
			"version_id", in.VersionID,
			"demoted", len(out.Demoted),
			"policy", string(out.Policy),
		)
	}
	return out, err
}

func (a *draftStructureAggregate) lockVersion(dbc dbctx.Context, op string, id uuid.UUID) (*types.FormVersion, error) {
	v, err := a.deps.Versions.LockByID(dbc, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
