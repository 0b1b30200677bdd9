package commerce

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
)

func TestEnrollmentRepoHasActive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEnrollmentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "")
	course := testutil.SeedCourse(t, ctx, tx, "")
	other := testutil.SeedCourse(t, ctx, tx, "")
	testutil.SeedEnrollment(t, ctx, tx, u.ID, course.ID, types.AchievementCourse)

	ok, err := repo.HasActive(dbc, u.ID, types.AchievementCourse, []uuid.UUID{course.ID})
	if err != nil || !ok {
		t.Fatalf("HasActive: want=true got=%v err=%v", ok, err)
	}
	ok, err = repo.HasActive(dbc, u.ID, types.AchievementCourse, []uuid.UUID{other.ID})
	if err != nil || ok {
		t.Fatalf("HasActive(other): want=false got=%v err=%v", ok, err)
	}
	ok, err = repo.HasActive(dbc, u.ID, types.AchievementLearningPath, []uuid.UUID{course.ID})
	if err != nil || ok {
		t.Fatalf("HasActive(wrong type): want=false got=%v err=%v", ok, err)
	}

	revokedAt := time.Now().UTC()
	revoked := &types.Enrollment{
		UserID:          u.ID,
		AchievementRef:  other.ID,
		AchievementType: types.AchievementCourse,
		RevokedAt:       &revokedAt,
	}
	if _, err := repo.Create(dbc, []*types.Enrollment{revoked}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err = repo.HasActive(dbc, u.ID, types.AchievementCourse, []uuid.UUID{other.ID})
	if err != nil || ok {
		t.Fatalf("HasActive(revoked): want=false got=%v err=%v", ok, err)
	}

	rows, err := repo.ListActiveByUser(dbc, u.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListActiveByUser: err=%v len=%d", err, len(rows))
	}
}
