package domain

import (
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/domain/commerce"
	"github.com/yungbote/neurobridge-credentials/internal/domain/credential"
	"github.com/yungbote/neurobridge-credentials/internal/domain/learning"
	"github.com/yungbote/neurobridge-credentials/internal/domain/user"
)

type User = user.User

type Course = learning.Course
type Lesson = learning.Lesson
type LessonProgress = learning.LessonProgress
type LearningPath = learning.LearningPath
type LearningPathCourse = learning.LearningPathCourse

type Enrollment = commerce.Enrollment

type AchievementType = credential.AchievementType
type Credential = credential.Credential
type AchievementEvent = credential.AchievementEvent

const (
	AchievementCourse       = credential.AchievementCourse
	AchievementLearningPath = credential.AchievementLearningPath

	EventCredentialIssued = credential.EventCredentialIssued
	EventArtifactAttached = credential.EventArtifactAttached

	LessonStatusNotStarted = learning.LessonStatusNotStarted
	LessonStatusInProgress = learning.LessonStatusInProgress
	LessonStatusCompleted  = learning.LessonStatusCompleted
)

// ParseAchievementType accepts COURSE and LEARNING_PATH, case-insensitively.
func ParseAchievementType(raw string) (AchievementType, error) {
	return credential.ParseAchievementType(raw)
}

func CredentialKey(learnerID, achievementRef uuid.UUID) string {
	return credential.Key(learnerID, achievementRef)
}

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Lesson{},
		&LearningPath{},
		&LearningPathCourse{},
		&LessonProgress{},
		&Enrollment{},
		&Credential{},
		&AchievementEvent{},
	}
}
