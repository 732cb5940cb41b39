package entries

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

type EntryValueRepo interface {
	ListByEntry(dbc dbctx.Context, entryID uuid.UUID) ([]*types.EntryValue, error)
	Upsert(dbc dbctx.Context, rows []*types.EntryValue) error
}

type entryValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryValueRepo(db *gorm.DB, baseLog *logger.Logger) EntryValueRepo {
	return &entryValueRepo{db: db, log: baseLog.With("repo", "EntryValueRepo")}
}

func (r *entryValueRepo) ListByEntry(dbc dbctx.Context, entryID uuid.UUID) ([]*types.EntryValue, error) {
	if entryID == uuid.Nil {
		return nil, fmt.Errorf("missing entry_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.EntryValue
	if err := txx.WithContext(dbc.Ctx).
		Where("entry_id = ?", entryID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert writes one row per (entry, field), replacing the stored value on conflict.
func (r *entryValueRepo) Upsert(dbc dbctx.Context, rows []*types.EntryValue) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.EntryID == uuid.Nil || row.FieldID == uuid.Nil {
			return fmt.Errorf("entry value missing entry_id or field_id")
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}, {Name: "field_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rows).Error
}
