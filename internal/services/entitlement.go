package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

// EntitlementService answers whether a learner holds an active enrollment that
// covers an achievement. A path enrollment also covers each of its courses.
type EntitlementService interface {
	IsEntitled(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (bool, error)
}

type entitlementService struct {
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	paths       repos.PathRepo
}

func NewEntitlementService(log *logger.Logger, enrollments repos.EnrollmentRepo, paths repos.PathRepo) EntitlementService {
	return &entitlementService{
		log:         log.With("service", "EntitlementService"),
		enrollments: enrollments,
		paths:       paths,
	}
}

func (s *entitlementService) IsEntitled(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	switch achievementType {
	case types.AchievementLearningPath:
		ok, err := s.enrollments.HasActive(dbc, learnerID, types.AchievementLearningPath, []uuid.UUID{achievementRef})
		if err != nil {
			return false, fmt.Errorf("lookup path enrollment: %w", err)
		}
		return ok, nil
	case types.AchievementCourse:
		ok, err := s.enrollments.HasActive(dbc, learnerID, types.AchievementCourse, []uuid.UUID{achievementRef})
		if err != nil {
			return false, fmt.Errorf("lookup course enrollment: %w", err)
		}
		if ok {
			return true, nil
		}
		pathIDs, err := s.paths.ListPathIDsByCourse(dbc, achievementRef)
		if err != nil {
			return false, fmt.Errorf("lookup paths for course: %w", err)
		}
		if len(pathIDs) == 0 {
			return false, nil
		}
		ok, err = s.enrollments.HasActive(dbc, learnerID, types.AchievementLearningPath, pathIDs)
		if err != nil {
			return false, fmt.Errorf("lookup path enrollment: %w", err)
		}
		return ok, nil
	default:
		return false, nil
	}
}
