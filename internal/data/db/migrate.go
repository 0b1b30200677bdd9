package db

import (
	"fmt"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureCredentialIndexes re-asserts the uniqueness constraints the credential store
// relies on. AutoMigrate creates them from struct tags; this covers databases that
// were migrated before the tags existed.
func EnsureCredentialIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_credential_achievement
		ON credential (learner_id, achievement_ref, achievement_type);
	`).Error; err != nil {
		return fmt.Errorf("create idx_credential_achievement: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_credential_credential_id
		ON credential (credential_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_credential_credential_id: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_credential_missing_artifact
		ON credential (created_at)
		WHERE artifact_url IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_credential_missing_artifact: %w", err)
	}
	return nil
}
