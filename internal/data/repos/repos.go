package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/repos/catalog"
	"github.com/yungbote/formflow-backend/internal/data/repos/entries"
	"github.com/yungbote/formflow-backend/internal/data/repos/forms"
	"github.com/yungbote/formflow-backend/internal/data/repos/i18n"
	"github.com/yungbote/formflow-backend/internal/data/repos/identity"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type FormRepo = forms.FormRepo
type FormVersionRepo = forms.FormVersionRepo
type StructureRepo = forms.StructureRepo

type EntryRepo = entries.EntryRepo
type EntryValueRepo = entries.EntryValueRepo

type CatalogRepo = catalog.CatalogRepo
type IdentityRepo = identity.IdentityRepo
type Grants = identity.Grants
type TranslationRepo = i18n.TranslationRepo
type Texts = i18n.Texts

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo { return forms.NewFormRepo(db, baseLog) }
func NewFormVersionRepo(db *gorm.DB, baseLog *logger.Logger) FormVersionRepo {
	return forms.NewFormVersionRepo(db, baseLog)
}
func NewStructureRepo(db *gorm.DB, baseLog *logger.Logger) StructureRepo {
	return forms.NewStructureRepo(db, baseLog)
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	return entries.NewEntryRepo(db, baseLog)
}
func NewEntryValueRepo(db *gorm.DB, baseLog *logger.Logger) EntryValueRepo {
	return entries.NewEntryValueRepo(db, baseLog)
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return catalog.NewCatalogRepo(db, baseLog)
}
func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return identity.NewIdentityRepo(db, baseLog)
}
func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) TranslationRepo {
	return i18n.NewTranslationRepo(db, baseLog)
}
