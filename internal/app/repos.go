package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	Course           repos.CourseRepo
	Lesson           repos.LessonRepo
	LessonProgress   repos.LessonProgressRepo
	Path             repos.PathRepo
	Enrollment       repos.EnrollmentRepo
	Credential       repos.CredentialRepo
	AchievementEvent repos.AchievementEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Course:           repos.NewCourseRepo(db, log),
		Lesson:           repos.NewLessonRepo(db, log),
		LessonProgress:   repos.NewLessonProgressRepo(db, log),
		Path:             repos.NewPathRepo(db, log),
		Enrollment:       repos.NewEnrollmentRepo(db, log),
		Credential:       repos.NewCredentialRepo(db, log),
		AchievementEvent: repos.NewAchievementEventRepo(db, log),
	}
}
