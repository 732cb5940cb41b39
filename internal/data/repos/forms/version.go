package forms

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type FormVersionRepo interface {
	Create(dbc dbctx.Context, rows []*types.FormVersion) ([]*types.FormVersion, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FormVersion, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.FormVersion, error)
	ListByForm(dbc dbctx.Context, formID uuid.UUID) ([]*types.FormVersion, error)
	Latest(dbc dbctx.Context, formID uuid.UUID) (*types.FormVersion, error)
	MaxVersionNumber(dbc dbctx.Context, formID uuid.UUID) (int, error)
	LatestPublishedByForms(dbc dbctx.Context, formIDs []uuid.UUID) (map[uuid.UUID]*types.FormVersion, error)
	DemoteToDraft(dbc dbctx.Context, formID, exceptID uuid.UUID, publishedOnly bool) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type formVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormVersionRepo(db *gorm.DB, baseLog *logger.Logger) FormVersionRepo {
	return &formVersionRepo{db: db, log: baseLog.With("repo", "FormVersionRepo")}
}

func (r *formVersionRepo) Create(dbc dbctx.Context, rows []*types.FormVersion) ([]*types.FormVersion, error) {
	if len(rows) == 0 {
		return []*types.FormVersion{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID returns nil without error when the version does not exist.
func (r *formVersionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FormVersion, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.FormVersion
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *formVersionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.FormVersion, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.FormVersion
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *formVersionRepo) ListByForm(dbc dbctx.Context, formID uuid.UUID) ([]*types.FormVersion, error) {
	if formID == uuid.Nil {
		return nil, fmt.Errorf("missing form_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.FormVersion
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("form_id = ?", formID).
		Order("version_number DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the highest-numbered version of a form, or nil.
func (r *formVersionRepo) Latest(dbc dbctx.Context, formID uuid.UUID) (*types.FormVersion, error) {
	if formID == uuid.Nil {
		return nil, fmt.Errorf("missing form_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.FormVersion
	if err := txx.WithContext(dbc.Ctx).
		Where("form_id = ?", formID).
		Order("version_number DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *formVersionRepo) MaxVersionNumber(dbc dbctx.Context, formID uuid.UUID) (int, error) {
	if formID == uuid.Nil {
		return 0, fmt.Errorf("missing form_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var max int
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("form_id = ?", formID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

// LatestPublishedByForms maps each form to its highest-numbered published version.
func (r *formVersionRepo) LatestPublishedByForms(dbc dbctx.Context, formIDs []uuid.UUID) (map[uuid.UUID]*types.FormVersion, error) {
	out := map[uuid.UUID]*types.FormVersion{}
	if len(formIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.FormVersion
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("form_id IN ? AND status = ?", formIDs, types.VersionStatusPublished).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FormID] = row
	}
	return out, nil
}

// DemoteToDraft moves sibling versions of a form back to draft and returns the ids
// touched. With publishedOnly only versions currently published are touched;
// otherwise every other version of the form is rewritten.
func (r *formVersionRepo) DemoteToDraft(dbc dbctx.Context, formID, exceptID uuid.UUID, publishedOnly bool) ([]uuid.UUID, error) {
	if formID == uuid.Nil {
		return nil, fmt.Errorf("missing form_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("form_id = ? AND id <> ?", formID, exceptID)
	if publishedOnly {
		q = q.Where("status = ?", types.VersionStatusPublished)
	}
	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     types.VersionStatusDraft,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *formVersionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.FormVersion{}).
		Where("id = ?", id).
		Updates(updates).Error
}
