package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type Repos struct {
	Form        repos.FormRepo
	FormVersion repos.FormVersionRepo
	Structure   repos.StructureRepo
	Entry       repos.EntryRepo
	EntryValue  repos.EntryValueRepo
	Catalog     repos.CatalogRepo
	Identity    repos.IdentityRepo
	Translation repos.TranslationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Form:        repos.NewFormRepo(db, log),
		FormVersion: repos.NewFormVersionRepo(db, log),
		Structure:   repos.NewStructureRepo(db, log),
		Entry:       repos.NewEntryRepo(db, log),
		EntryValue:  repos.NewEntryValueRepo(db, log),
		Catalog:     repos.NewCatalogRepo(db, log),
		Identity:    repos.NewIdentityRepo(db, log),
		Translation: repos.NewTranslationRepo(db, log),
	}
}
