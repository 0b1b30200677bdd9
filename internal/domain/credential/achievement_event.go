package credential

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventCredentialIssued = "credential_issued"
	EventArtifactAttached = "artifact_attached"
)

// AchievementEvent is an append-only audit row. Nothing in this service updates or
// deletes these.
type AchievementEvent struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"learner_id"`
	CredentialID    string          `gorm:"column:credential_id;not null;index" json:"credential_id"`
	AchievementRef  uuid.UUID       `gorm:"type:uuid;not null" json:"achievement_ref"`
	AchievementType AchievementType `gorm:"column:achievement_type;not null" json:"achievement_type"`
	EventType       string          `gorm:"column:event_type;not null;index" json:"event_type"`
	Payload         datatypes.JSON  `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (AchievementEvent) TableName() string { return "achievement_event" }

func (e *AchievementEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
