package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LearningPath groups courses into an ordered track with its own credential.
type LearningPath struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }

func (p *LearningPath) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type LearningPathCourse struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PathID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_learning_path_course,priority:1" json:"path_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_learning_path_course,priority:2;index" json:"course_id"`
	Index    int       `gorm:"column:index;not null" json:"index"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (LearningPathCourse) TableName() string { return "learning_path_course" }

func (pc *LearningPathCourse) BeforeCreate(tx *gorm.DB) error {
	if pc.ID == uuid.Nil {
		pc.ID = uuid.New()
	}
	return nil
}
