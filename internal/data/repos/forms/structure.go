package forms

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

const structureBatchSize = 200

// StructureRepo persists the stage/section/field graph of a form version as a unit.
type StructureRepo interface {
	LoadGraph(dbc dbctx.Context, version *types.FormVersion) (*graph.Graph, error)
	ReplaceGraph(dbc dbctx.Context, versionID uuid.UUID, g *graph.Graph) error
	CountStages(dbc dbctx.Context, versionID uuid.UUID) (int64, error)
}

type structureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStructureRepo(db *gorm.DB, baseLog *logger.Logger) StructureRepo {
	return &structureRepo{db: db, log: baseLog.With("repo", "StructureRepo")}
}

func (r *structureRepo) LoadGraph(dbc dbctx.Context, version *types.FormVersion) (*graph.Graph, error) {
	if version == nil || version.ID == uuid.Nil {
		return nil, fmt.Errorf("missing version")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := func() *gorm.DB {
		return txx.WithContext(dbc.Ctx).Where("form_version_id = ?", version.ID).Order("position ASC")
	}
	g := &graph.Graph{Version: version}
	if err := q().Find(&g.Stages).Error; err != nil {
		return nil, err
	}
	if err := q().Find(&g.Sections).Error; err != nil {
		return nil, err
	}
	if err := q().Find(&g.Fields).Error; err != nil {
		return nil, err
	}
	if err := q().Find(&g.Rules).Error; err != nil {
		return nil, err
	}
	if err := txx.WithContext(dbc.Ctx).Where("form_version_id = ?", version.ID).Find(&g.AccessRules).Error; err != nil {
		return nil, err
	}
	if err := q().Find(&g.Transitions).Error; err != nil {
		return nil, err
	}
	if err := q().Find(&g.Actions).Error; err != nil {
		return nil, err
	}
	return g.Reindex(), nil
}

// ReplaceGraph deletes every structural row of the version and inserts g in its place.
// It must run inside a transaction.
func (r *structureRepo) ReplaceGraph(dbc dbctx.Context, versionID uuid.UUID, g *graph.Graph) error {
	if versionID == uuid.Nil {
		return fmt.Errorf("missing version_id")
	}
	if dbc.Tx == nil {
		return fmt.Errorf("ReplaceGraph requires dbc.Tx")
	}
	if g == nil {
		return fmt.Errorf("missing graph")
	}
	txx := dbc.Tx.WithContext(dbc.Ctx)

	for _, model := range []any{
		&types.StageTransitionAction{},
		&types.StageTransition{},
		&types.StageAccessRule{},
		&types.FieldRule{},
		&types.Field{},
		&types.Section{},
		&types.Stage{},
	} {
		if err := txx.Where("form_version_id = ?", versionID).Delete(model).Error; err != nil {
			return err
		}
	}

	for _, s := range g.Stages {
		s.FormVersionID = versionID
	}
	for _, s := range g.Sections {
		s.FormVersionID = versionID
	}
	for _, f := range g.Fields {
		f.FormVersionID = versionID
	}
	for _, fr := range g.Rules {
		fr.FormVersionID = versionID
	}
	for _, a := range g.AccessRules {
		a.FormVersionID = versionID
	}
	for _, t := range g.Transitions {
		t.FormVersionID = versionID
	}
	for _, a := range g.Actions {
		a.FormVersionID = versionID
	}

	if len(g.Stages) > 0 {
		if err := txx.CreateInBatches(g.Stages, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.Sections) > 0 {
		if err := txx.CreateInBatches(g.Sections, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.Fields) > 0 {
		if err := txx.CreateInBatches(g.Fields, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.Rules) > 0 {
		if err := txx.CreateInBatches(g.Rules, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.AccessRules) > 0 {
		if err := txx.CreateInBatches(g.AccessRules, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.Transitions) > 0 {
		if err := txx.CreateInBatches(g.Transitions, structureBatchSize).Error; err != nil {
			return err
		}
	}
	if len(g.Actions) > 0 {
		if err := txx.CreateInBatches(g.Actions, structureBatchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *structureRepo) CountStages(dbc dbctx.Context, versionID uuid.UUID) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Stage{}).
		Where("form_version_id = ?", versionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
