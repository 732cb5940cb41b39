package db

import (
	"fmt"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureFormIndexes(db)
}

// EnsureFormIndexes adds the partial unique indexes GORM tags cannot express.
// Both statements are valid on Postgres and SQLite.
func EnsureFormIndexes(db *gorm.DB) error {
	// At most one published version per form.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_form_version_one_published
		ON form_version (form_id)
		WHERE status = 'published';
	`).Error; err != nil {
		return fmt.Errorf("create idx_form_version_one_published: %w", err)
	}
	// Exactly one initial stage per version (the "at least" half is checked on write).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_form_stage_one_initial
		ON form_stage (form_version_id)
		WHERE is_initial;
	`).Error; err != nil {
		return fmt.Errorf("create idx_form_stage_one_initial: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_stage_transition_from_position
		ON stage_transition (from_stage_id, position);
	`).Error; err != nil {
		return fmt.Errorf("create idx_stage_transition_from_position: %w", err)
	}
	return nil
}
