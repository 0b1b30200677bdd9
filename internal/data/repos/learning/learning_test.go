package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCourseRepo(db, testutil.Logger(t))

	c := &types.Course{Title: "Go Basics", Status: "published"}
	if _, err := repo.Create(dbc, []*types.Course{c}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(dbc, c.ID)
	if err != nil || got == nil || got.Title != "Go Basics" {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{c.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): want=nil got=%v err=%v", missing, err)
	}
}

func TestLessonRepoOrdersByIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLessonRepo(db, testutil.Logger(t))

	c := testutil.SeedCourse(t, ctx, tx, "")
	l2 := testutil.SeedLesson(t, ctx, tx, c.ID, 2)
	l0 := testutil.SeedLesson(t, ctx, tx, c.ID, 0)
	l1 := testutil.SeedLesson(t, ctx, tx, c.ID, 1)

	ids, err := repo.ListIDsByCourse(dbc, c.ID)
	if err != nil {
		t.Fatalf("ListIDsByCourse: %v", err)
	}
	want := []uuid.UUID{l0.ID, l1.ID, l2.ID}
	if len(ids) != len(want) {
		t.Fatalf("ListIDsByCourse: want=%d got=%d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ListIDsByCourse[%d]: want=%s got=%s", i, want[i], ids[i])
		}
	}

	empty, err := repo.ListIDsByCourse(dbc, uuid.New())
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListIDsByCourse(unknown): err=%v len=%d", err, len(empty))
	}
}

func TestLessonProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLessonProgressRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "")
	c := testutil.SeedCourse(t, ctx, tx, "")
	lesson := testutil.SeedLesson(t, ctx, tx, c.ID, 0)

	lp := &types.LessonProgress{UserID: u.ID, LessonID: lesson.ID, Status: types.LessonStatusInProgress}
	if err := repo.Upsert(dbc, lp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	rows, err := repo.GetByUserAndLessonIDs(dbc, u.ID, []uuid.UUID{lesson.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserAndLessonIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].CompletedAt != nil {
		t.Fatalf("CompletedAt: want=nil got=%v", rows[0].CompletedAt)
	}

	now := time.Now().UTC()
	up := &types.LessonProgress{
		UserID:           u.ID,
		LessonID:         lesson.ID,
		Status:           types.LessonStatusCompleted,
		CompletedAt:      &now,
		TimeSpentSeconds: 30,
	}
	if err := repo.Upsert(dbc, up); err != nil {
		t.Fatalf("Upsert(update): %v", err)
	}
	rows, err = repo.GetByUserAndLessonIDs(dbc, u.ID, []uuid.UUID{lesson.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserAndLessonIDs(after): err=%v len=%d", err, len(rows))
	}
	if rows[0].CompletedAt == nil || rows[0].Status != types.LessonStatusCompleted || rows[0].TimeSpentSeconds != 30 {
		t.Fatalf("Upsert did not update: %+v", rows[0])
	}
}

func TestPathRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPathRepo(db, testutil.Logger(t))

	c1 := testutil.SeedCourse(t, ctx, tx, "one")
	c2 := testutil.SeedCourse(t, ctx, tx, "two")

	p := &types.LearningPath{Title: "Backend Track"}
	if _, err := repo.Create(dbc, []*types.LearningPath{p}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SetCourses(dbc, p.ID, []uuid.UUID{c2.ID, c1.ID}); err != nil {
		t.Fatalf("SetCourses: %v", err)
	}

	ids, err := repo.ListCourseIDs(dbc, p.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListCourseIDs: err=%v len=%d", err, len(ids))
	}
	if ids[0] != c2.ID || ids[1] != c1.ID {
		t.Fatalf("ListCourseIDs order: want=[%s %s] got=%v", c2.ID, c1.ID, ids)
	}

	if err := repo.SetCourses(dbc, p.ID, []uuid.UUID{c1.ID}); err != nil {
		t.Fatalf("SetCourses(replace): %v", err)
	}
	ids, err = repo.ListCourseIDs(dbc, p.ID)
	if err != nil || len(ids) != 1 || ids[0] != c1.ID {
		t.Fatalf("ListCourseIDs(after replace): err=%v ids=%v", err, ids)
	}

	paths, err := repo.ListPathIDsByCourse(dbc, c1.ID)
	if err != nil || len(paths) != 1 || paths[0] != p.ID {
		t.Fatalf("ListPathIDsByCourse: err=%v paths=%v", err, paths)
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil || got.Title != "Backend Track" {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
}
