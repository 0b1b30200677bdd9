package credential

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AchievementType string

const (
	AchievementCourse       AchievementType = "COURSE"
	AchievementLearningPath AchievementType = "LEARNING_PATH"
)

func (t AchievementType) Valid() bool {
	return t == AchievementCourse || t == AchievementLearningPath
}

// ParseAchievementType accepts the canonical names plus lower-case and "path" aliases.
func ParseAchievementType(raw string) (AchievementType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COURSE":
		return AchievementCourse, nil
	case "LEARNING_PATH", "PATH", "LEARNINGPATH":
		return AchievementLearningPath, nil
	default:
		return "", fmt.Errorf("unknown achievement type %q", raw)
	}
}

// Credential is the durable record of an earned achievement. At most one row exists per
// (learner_id, achievement_ref, achievement_type); rows are never deleted.
type Credential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CredentialID string    `gorm:"column:credential_id;not null;uniqueIndex" json:"credential_id"`

	LearnerID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_credential_achievement,priority:1" json:"learner_id"`
	AchievementRef  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_credential_achievement,priority:2" json:"achievement_ref"`
	AchievementType AchievementType `gorm:"column:achievement_type;not null;uniqueIndex:idx_credential_achievement,priority:3" json:"achievement_type"`

	IssuedAt time.Time `gorm:"column:issued_at;not null;index" json:"issued_at"`

	// Null until the rendered artifact has been durably stored.
	ArtifactURL *string `gorm:"column:artifact_url" json:"artifact_url,omitempty"`
	ArtifactKey *string `gorm:"column:artifact_key" json:"-"`

	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Credential) TableName() string { return "credential" }

func (c *Credential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Credential) HasArtifact() bool {
	return c != nil && c.ArtifactURL != nil && strings.TrimSpace(*c.ArtifactURL) != ""
}

// ValidAt reports whether the credential is unexpired at t.
func (c *Credential) ValidAt(t time.Time) bool {
	if c == nil {
		return false
	}
	return c.ExpiresAt == nil || t.Before(*c.ExpiresAt)
}

// Key is the coalescing key shared by every request for the same achievement.
func Key(learnerID, achievementRef uuid.UUID) string {
	return learnerID.String() + ":" + achievementRef.String()
}
