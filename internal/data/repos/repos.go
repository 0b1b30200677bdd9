package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos/commerce"
	"github.com/yungbote/neurobridge-credentials/internal/data/repos/credential"
	"github.com/yungbote/neurobridge-credentials/internal/data/repos/learning"
	"github.com/yungbote/neurobridge-credentials/internal/data/repos/user"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type LessonProgressRepo = learning.LessonProgressRepo
type PathRepo = learning.PathRepo

type EnrollmentRepo = commerce.EnrollmentRepo

type CredentialRepo = credential.CredentialRepo
type AchievementEventRepo = credential.AchievementEventRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}
func NewLessonRepo(db *gorm.DB, log *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, log)
}
func NewLessonProgressRepo(db *gorm.DB, log *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, log)
}
func NewPathRepo(db *gorm.DB, log *logger.Logger) PathRepo { return learning.NewPathRepo(db, log) }

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return commerce.NewEnrollmentRepo(db, log)
}

func NewCredentialRepo(db *gorm.DB, log *logger.Logger) CredentialRepo {
	return credential.NewCredentialRepo(db, log)
}
func NewAchievementEventRepo(db *gorm.DB, log *logger.Logger) AchievementEventRepo {
	return credential.NewAchievementEventRepo(db, log)
}
