package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	"github.com/yungbote/neurobridge-credentials/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
)

func newEvaluator(t *testing.T, gdb *gorm.DB) *Evaluator {
	t.Helper()
	log := testutil.Logger(t)
	return NewEvaluator(
		log,
		repos.NewCourseRepo(gdb, log),
		repos.NewLessonRepo(gdb, log),
		repos.NewLessonProgressRepo(gdb, log),
		repos.NewPathRepo(gdb, log),
	)
}

func TestCourseCompletion(t *testing.T) {
	tests := []struct {
		name     string
		lessons  int
		finished int
		want     bool
	}{
		{name: "none finished", lessons: 5, finished: 0, want: false},
		{name: "partial", lessons: 5, finished: 4, want: false},
		{name: "all finished", lessons: 5, finished: 5, want: true},
		{name: "no lessons", lessons: 0, finished: 0, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			gdb := testutil.DB(t)
			ev := newEvaluator(t, gdb)

			u := testutil.SeedUser(t, ctx, gdb, "")
			course, lessons := testutil.SeedCourseWithLessons(t, ctx, gdb, "", tc.lessons)
			for i := 0; i < tc.finished; i++ {
				testutil.SeedCompletion(t, ctx, gdb, u.ID, lessons[i].ID)
			}
			got, err := ev.IsComplete(ctx, u.ID, course.ID, types.AchievementCourse)
			if err != nil {
				t.Fatalf("IsComplete: %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsComplete: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestCourseCompletionIgnoresUnfinishedProgressRows(t *testing.T) {
	gdb := testutil.DB(t)
	ctx := context.Background()
	ev := newEvaluator(t, gdb)

	u := testutil.SeedUser(t, ctx, gdb, "")
	course, lessons := testutil.SeedCourseWithLessons(t, ctx, gdb, "", 2)
	testutil.SeedCompletion(t, ctx, gdb, u.ID, lessons[0].ID)
	inProgress := &types.LessonProgress{UserID: u.ID, LessonID: lessons[1].ID, Status: types.LessonStatusCompleted}
	if err := gdb.Create(inProgress).Error; err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	snap, err := ev.Evaluate(ctx, u.ID, course.ID, types.AchievementCourse)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if snap.Complete() {
		t.Fatalf("Complete: want=false (status without completed_at)")
	}
	if len(snap.Required) != 2 || len(snap.Finished) != 1 {
		t.Fatalf("snapshot: want required=2 finished=1 got required=%d finished=%d", len(snap.Required), len(snap.Finished))
	}

	// Another learner's progress never counts.
	other := testutil.SeedUser(t, ctx, gdb, "")
	testutil.SeedCompletion(t, ctx, gdb, other.ID, lessons[1].ID)
	if ok, _ := ev.IsComplete(ctx, u.ID, course.ID, types.AchievementCourse); ok {
		t.Fatalf("IsComplete: other learner's progress leaked in")
	}
}

func TestPathCompletion(t *testing.T) {
	gdb := testutil.DB(t)
	ctx := context.Background()
	ev := newEvaluator(t, gdb)

	u := testutil.SeedUser(t, ctx, gdb, "")
	c1, l1 := testutil.SeedCourseWithLessons(t, ctx, gdb, "one", 2)
	c2, l2 := testutil.SeedCourseWithLessons(t, ctx, gdb, "two", 1)
	path := testutil.SeedPath(t, ctx, gdb, "", c1.ID, c2.ID)
	empty := testutil.SeedPath(t, ctx, gdb, "empty")

	for _, l := range l1 {
		testutil.SeedCompletion(t, ctx, gdb, u.ID, l.ID)
	}
	if ok, err := ev.IsComplete(ctx, u.ID, path.ID, types.AchievementLearningPath); err != nil || ok {
		t.Fatalf("IsComplete(one of two courses): want=false got=%v err=%v", ok, err)
	}

	testutil.SeedCompletion(t, ctx, gdb, u.ID, l2[0].ID)
	if ok, err := ev.IsComplete(ctx, u.ID, path.ID, types.AchievementLearningPath); err != nil || !ok {
		t.Fatalf("IsComplete(all courses): want=true got=%v err=%v", ok, err)
	}

	if ok, err := ev.IsComplete(ctx, u.ID, empty.ID, types.AchievementLearningPath); err != nil || ok {
		t.Fatalf("IsComplete(empty path): want=false got=%v err=%v", ok, err)
	}
}

func TestUnknownReferenceIsNotComplete(t *testing.T) {
	ev := newEvaluator(t, testutil.DB(t))
	ctx := context.Background()

	for _, at := range []types.AchievementType{types.AchievementCourse, types.AchievementLearningPath} {
		ok, err := ev.IsComplete(ctx, uuid.New(), uuid.New(), at)
		if err != nil || ok {
			t.Fatalf("IsComplete(%s unknown): want=false,nil got=%v,%v", at, ok, err)
		}
	}
}

func TestInvalidInput(t *testing.T) {
	ev := newEvaluator(t, testutil.DB(t))
	ctx := context.Background()

	if _, err := ev.IsComplete(ctx, uuid.Nil, uuid.New(), types.AchievementCourse); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("nil learner: want ErrInvalidArgument got=%v", err)
	}
	if _, err := ev.IsComplete(ctx, uuid.New(), uuid.New(), types.AchievementType("BADGE")); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("bad type: want ErrInvalidArgument got=%v", err)
	}
}
