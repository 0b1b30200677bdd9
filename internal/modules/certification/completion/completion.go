// Package completion decides whether a learner has finished a course or learning path.
package completion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

// pathParallelism bounds concurrent course checks for one path.
const pathParallelism = 4

// Snapshot is the requirement set for one achievement and the subset the learner has
// finished. It is recomputed on every evaluation.
type Snapshot struct {
	AchievementRef  uuid.UUID
	AchievementType types.AchievementType
	Required        []uuid.UUID
	Finished        []uuid.UUID
}

// Complete is false for an empty requirement set.
func (s Snapshot) Complete() bool {
	return len(s.Required) > 0 && len(s.Finished) == len(s.Required)
}

type Evaluator struct {
	log      *logger.Logger
	courses  repos.CourseRepo
	lessons  repos.LessonRepo
	progress repos.LessonProgressRepo
	paths    repos.PathRepo
}

func NewEvaluator(
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	lessons repos.LessonRepo,
	progress repos.LessonProgressRepo,
	paths repos.PathRepo,
) *Evaluator {
	return &Evaluator{
		log:      baseLog.With("service", "CompletionEvaluator"),
		courses:  courses,
		lessons:  lessons,
		progress: progress,
		paths:    paths,
	}
}

// IsComplete reports whether learnerID has finished the achievement. An unknown
// reference is reported as not complete.
func (e *Evaluator) IsComplete(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (bool, error) {
	snap, err := e.Evaluate(ctx, learnerID, achievementRef, achievementType)
	if err != nil {
		return false, err
	}
	return snap.Complete(), nil
}

func (e *Evaluator) Evaluate(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (Snapshot, error) {
	if learnerID == uuid.Nil || achievementRef == uuid.Nil {
		return Snapshot{}, fmt.Errorf("%w: learner and achievement ids are required", apperr.ErrInvalidArgument)
	}
	switch achievementType {
	case types.AchievementCourse:
		return e.courseSnapshot(ctx, learnerID, achievementRef)
	case types.AchievementLearningPath:
		return e.pathSnapshot(ctx, learnerID, achievementRef)
	default:
		return Snapshot{}, fmt.Errorf("%w: achievement type %q", apperr.ErrInvalidArgument, achievementType)
	}
}

func (e *Evaluator) courseSnapshot(ctx context.Context, learnerID, courseID uuid.UUID) (Snapshot, error) {
	snap := Snapshot{AchievementRef: courseID, AchievementType: types.AchievementCourse}
	dbc := dbctx.Context{Ctx: ctx}

	course, err := e.courses.GetByID(dbc, courseID)
	if err != nil {
		return snap, fmt.Errorf("load course %s: %w", courseID, err)
	}
	if course == nil {
		return snap, nil
	}

	lessonIDs, err := e.lessons.ListIDsByCourse(dbc, courseID)
	if err != nil {
		return snap, fmt.Errorf("list lessons for course %s: %w", courseID, err)
	}
	snap.Required = lessonIDs
	if len(lessonIDs) == 0 {
		return snap, nil
	}

	rows, err := e.progress.GetByUserAndLessonIDs(dbc, learnerID, lessonIDs)
	if err != nil {
		return snap, fmt.Errorf("load lesson progress: %w", err)
	}
	done := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row != nil && row.CompletedAt != nil {
			done[row.LessonID] = true
		}
	}
	for _, id := range lessonIDs {
		if done[id] {
			snap.Finished = append(snap.Finished, id)
		}
	}
	return snap, nil
}

func (e *Evaluator) pathSnapshot(ctx context.Context, learnerID, pathID uuid.UUID) (Snapshot, error) {
	snap := Snapshot{AchievementRef: pathID, AchievementType: types.AchievementLearningPath}
	dbc := dbctx.Context{Ctx: ctx}

	path, err := e.paths.GetByID(dbc, pathID)
	if err != nil {
		return snap, fmt.Errorf("load path %s: %w", pathID, err)
	}
	if path == nil {
		return snap, nil
	}

	courseIDs, err := e.paths.ListCourseIDs(dbc, pathID)
	if err != nil {
		return snap, fmt.Errorf("list courses for path %s: %w", pathID, err)
	}
	snap.Required = courseIDs
	if len(courseIDs) == 0 {
		return snap, nil
	}

	finished := make([]bool, len(courseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pathParallelism)
	for i, courseID := range courseIDs {
		i, courseID := i, courseID
		g.Go(func() error {
			cs, err := e.courseSnapshot(gctx, learnerID, courseID)
			if err != nil {
				return err
			}
			finished[i] = cs.Complete()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snap, err
	}

	for i, id := range courseIDs {
		if finished[i] {
			snap.Finished = append(snap.Finished, id)
		}
	}
	e.log.Debug("path completion evaluated",
		"path_id", pathID,
		"required", len(snap.Required),
		"finished", len(snap.Finished),
	)
	return snap, nil
}
