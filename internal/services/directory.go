package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

// DirectoryService resolves learner and achievement names for printing.
type DirectoryService interface {
	Recipient(ctx context.Context, learnerID uuid.UUID) (string, string, error)
	AchievementName(ctx context.Context, achievementRef uuid.UUID, achievementType types.AchievementType) (string, error)
}

type directoryService struct {
	log     *logger.Logger
	users   repos.UserRepo
	courses repos.CourseRepo
	paths   repos.PathRepo
}

func NewDirectoryService(log *logger.Logger, users repos.UserRepo, courses repos.CourseRepo, paths repos.PathRepo) DirectoryService {
	return &directoryService{
		log:     log.With("service", "DirectoryService"),
		users:   users,
		courses: courses,
		paths:   paths,
	}
}

// Recipient returns the learner's display name and email.
func (s *directoryService) Recipient(ctx context.Context, learnerID uuid.UUID) (string, string, error) {
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, learnerID)
	if err != nil {
		return "", "", fmt.Errorf("load learner: %w", err)
	}
	if u == nil {
		return "", "", fmt.Errorf("learner %s: %w", learnerID, apperr.ErrNotFound)
	}
	return u.DisplayName(), u.Email, nil
}

func (s *directoryService) AchievementName(ctx context.Context, achievementRef uuid.UUID, achievementType types.AchievementType) (string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	switch achievementType {
	case types.AchievementCourse:
		c, err := s.courses.GetByID(dbc, achievementRef)
		if err != nil {
			return "", fmt.Errorf("load course: %w", err)
		}
		if c == nil {
			return "", fmt.Errorf("course %s: %w", achievementRef, apperr.ErrNotFound)
		}
		return c.Title, nil
	case types.AchievementLearningPath:
		p, err := s.paths.GetByID(dbc, achievementRef)
		if err != nil {
			return "", fmt.Errorf("load learning path: %w", err)
		}
		if p == nil {
			return "", fmt.Errorf("learning path %s: %w", achievementRef, apperr.ErrNotFound)
		}
		return p.Title, nil
	default:
		return "", fmt.Errorf("%w: achievement type %q", apperr.ErrInvalidArgument, achievementType)
	}
}
