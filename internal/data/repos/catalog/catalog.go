package catalog

import (
	"gorm.io/gorm"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// CatalogRepo reads the reference tables. Rows are small and change only through
// seeding, so callers cache the full lists.
type CatalogRepo interface {
	ListFieldTypes(dbc dbctx.Context) ([]*types.FieldType, error)
	ListInputRules(dbc dbctx.Context) ([]*types.InputRule, error)
	ListActions(dbc dbctx.Context) ([]*types.Action, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

func (r *catalogRepo) ListFieldTypes(dbc dbctx.Context) ([]*types.FieldType, error) {
	var out []*types.FieldType
	if err := r.tx(dbc).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListInputRules(dbc dbctx.Context) ([]*types.InputRule, error) {
	var out []*types.InputRule
	if err := r.tx(dbc).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListActions(dbc dbctx.Context) ([]*types.Action, error) {
	var out []*types.Action
	if err := r.tx(dbc).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) tx(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}
