package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-credentials/internal/domain/credential"
	"gorm.io/gorm"
)

const (
	EnrollmentSourcePurchase     = "purchase"
	EnrollmentSourceSubscription = "subscription"
	EnrollmentSourceGrant        = "grant"
)

// Enrollment is written by checkout and subscription flows; this service only reads it.
type Enrollment struct {
	ID              uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                  `gorm:"type:uuid;not null;index:idx_enrollment_target,priority:1" json:"user_id"`
	AchievementRef  uuid.UUID                  `gorm:"type:uuid;not null;index:idx_enrollment_target,priority:2" json:"achievement_ref"`
	AchievementType credential.AchievementType `gorm:"column:achievement_type;not null;index:idx_enrollment_target,priority:3" json:"achievement_type"`
	Source          string                     `gorm:"column:source;not null;default:'purchase'" json:"source"`
	RevokedAt       *time.Time                 `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
