package i18n

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// Texts maps entity id to translation key to text.
type Texts map[uuid.UUID]map[string]string

// Get returns the translated text or "" when none is stored.
func (t Texts) Get(entityID uuid.UUID, key string) string {
	if t == nil {
		return ""
	}
	return t[entityID][key]
}

type TranslationRepo interface {
	Lookup(dbc dbctx.Context, entityIDs []uuid.UUID, languageID string) (Texts, error)
	Upsert(dbc dbctx.Context, rows []*types.Translation) error
}

type translationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) TranslationRepo {
	return &translationRepo{db: db, log: baseLog.With("repo", "TranslationRepo")}
}

func (r *translationRepo) Lookup(dbc dbctx.Context, entityIDs []uuid.UUID, languageID string) (Texts, error) {
	out := Texts{}
	languageID = strings.TrimSpace(languageID)
	if languageID == "" || len(entityIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.Translation
	if err := txx.WithContext(dbc.Ctx).
		Where("language_id = ? AND entity_id IN ?", languageID, entityIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.EntityID] == nil {
			out[row.EntityID] = map[string]string{}
		}
		out[row.EntityID][row.Key] = row.Text
	}
	return out, nil
}

func (r *translationRepo) Upsert(dbc dbctx.Context, rows []*types.Translation) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
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
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "language_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		}).
		Create(&rows).Error
}
