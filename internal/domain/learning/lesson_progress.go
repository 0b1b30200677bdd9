package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LessonStatusNotStarted = "not_started"
	LessonStatusInProgress = "in_progress"
	LessonStatusCompleted  = "completed"
)

// LessonProgress is one learner's state on one lesson. A lesson counts as finished
// only when CompletedAt is set; Status is informational.
type LessonProgress struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:1" json:"user_id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:2;index" json:"lesson_id"`

	Status           string     `gorm:"column:status;not null;default:'not_started'" json:"status"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	TimeSpentSeconds int        `gorm:"column:time_spent_seconds;not null;default:0" json:"time_spent_seconds"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (lp *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if lp.ID == uuid.Nil {
		lp.ID = uuid.New()
	}
	return nil
}
