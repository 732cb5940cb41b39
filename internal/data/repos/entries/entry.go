package entries

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type EntryRepo interface {
	Create(dbc dbctx.Context, rows []*types.Entry) ([]*types.Entry, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entry, error)
	GetByPublicIdentifier(dbc dbctx.Context, publicID string) (*types.Entry, error)
	LockByPublicIdentifier(dbc dbctx.Context, publicID string) (*types.Entry, error)
	CountByVersion(dbc dbctx.Context, versionID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	return &entryRepo{db: db, log: baseLog.With("repo", "EntryRepo")}
}

func (r *entryRepo) Create(dbc dbctx.Context, rows []*types.Entry) ([]*types.Entry, error) {
	if len(rows) == 0 {
		return []*types.Entry{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if strings.TrimSpace(row.PublicIdentifier) == "" {
			return nil, fmt.Errorf("missing public_identifier")
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

// GetByID returns nil without error when the entry does not exist.
func (r *entryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entry, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Entry
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetByPublicIdentifier returns nil without error when no entry carries the identifier.
func (r *entryRepo) GetByPublicIdentifier(dbc dbctx.Context, publicID string) (*types.Entry, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Entry
	if err := txx.WithContext(dbc.Ctx).
		Where("public_identifier = ?", publicID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *entryRepo) LockByPublicIdentifier(dbc dbctx.Context, publicID string) (*types.Entry, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByPublicIdentifier requires dbc.Tx")
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, nil
	}
	var out []*types.Entry
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_identifier = ?", publicID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *entryRepo) CountByVersion(dbc dbctx.Context, versionID uuid.UUID) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Entry{}).
		Where("form_version_id = ?", versionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *entryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Entry{}).
		Where("id = ?", id).
		Updates(updates).Error
}
