package credential

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
)

func draft(learnerID, ref uuid.UUID, credentialID string) *types.Credential {
	return &types.Credential{
		CredentialID:    credentialID,
		LearnerID:       learnerID,
		AchievementRef:  ref,
		AchievementType: types.AchievementCourse,
		IssuedAt:        time.Now().UTC(),
	}
}

func TestCredentialRepoGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCredentialRepo(db, testutil.Logger(t))
	events := NewAchievementEventRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "")
	course := testutil.SeedCourse(t, ctx, tx, "")

	first, created, err := repo.GetOrCreate(dbc, draft(u.ID, course.ID, "CERT-A-00000001"))
	if err != nil || !created {
		t.Fatalf("GetOrCreate(first): created=%v err=%v", created, err)
	}
	second, created, err := repo.GetOrCreate(dbc, draft(u.ID, course.ID, "CERT-B-00000002"))
	if err != nil {
		t.Fatalf("GetOrCreate(second): %v", err)
	}
	if created {
		t.Fatalf("GetOrCreate(second): want created=false")
	}
	if second.CredentialID != first.CredentialID {
		t.Fatalf("credential id: want=%s got=%s", first.CredentialID, second.CredentialID)
	}

	evs, err := events.ListByCredentialID(dbc, first.CredentialID)
	if err != nil || len(evs) != 1 || evs[0].EventType != types.EventCredentialIssued {
		t.Fatalf("issued events: err=%v evs=%v", err, evs)
	}
	if evs, _ := events.ListByCredentialID(dbc, "CERT-B-00000002"); len(evs) != 0 {
		t.Fatalf("losing attempt wrote events: %d", len(evs))
	}

	// Same learner and ref but a different type is a different achievement.
	pathDraft := draft(u.ID, course.ID, "CERT-C-00000003")
	pathDraft.AchievementType = types.AchievementLearningPath
	if _, created, err := repo.GetOrCreate(dbc, pathDraft); err != nil || !created {
		t.Fatalf("GetOrCreate(path type): created=%v err=%v", created, err)
	}
}

func TestCredentialRepoGetOrCreateConcurrent(t *testing.T) {
	db := testutil.DB(t)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewCredentialRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, "")
	course := testutil.SeedCourse(t, ctx, db, "")

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ids      = map[string]int{}
		creators int
		errs     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row, created, err := repo.GetOrCreate(dbc, draft(u.ID, course.ID, fmt.Sprintf("CERT-RACE-%08d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[row.CredentialID]++
			if created {
				creators++
			}
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("GetOrCreate errors: %v", errs)
	}
	if creators != 1 {
		t.Fatalf("creators: want=1 got=%d", creators)
	}
	if len(ids) != 1 {
		t.Fatalf("distinct credential ids: want=1 got=%d (%v)", len(ids), ids)
	}

	var count int64
	if err := db.Model(&types.Credential{}).Where("learner_id = ?", u.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows: want=1 got=%d", count)
	}
}

func TestCredentialRepoAttachArtifact(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCredentialRepo(db, testutil.Logger(t))
	events := NewAchievementEventRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "")
	course := testutil.SeedCourse(t, ctx, tx, "")
	seeded := testutil.SeedCredential(t, ctx, tx, u.ID, course.ID, types.AchievementCourse, "")

	missing, err := repo.ListMissingArtifact(dbc, 10)
	if err != nil || len(missing) != 1 {
		t.Fatalf("ListMissingArtifact: err=%v len=%d", err, len(missing))
	}

	if err := repo.AttachArtifact(dbc, seeded.CredentialID, "https://cdn.example.com/c.png", "certificates/c.png"); err != nil {
		t.Fatalf("AttachArtifact: %v", err)
	}
	got, err := repo.GetByCredentialID(dbc, seeded.CredentialID)
	if err != nil || got == nil {
		t.Fatalf("GetByCredentialID: err=%v got=%v", err, got)
	}
	if !got.HasArtifact() || *got.ArtifactURL != "https://cdn.example.com/c.png" {
		t.Fatalf("artifact url not stored: %+v", got)
	}
	if missing, _ := repo.ListMissingArtifact(dbc, 10); len(missing) != 0 {
		t.Fatalf("ListMissingArtifact(after): want=0 got=%d", len(missing))
	}
	evs, err := events.ListByLearner(dbc, u.ID, 10)
	if err != nil || len(evs) != 1 || evs[0].EventType != types.EventArtifactAttached {
		t.Fatalf("artifact events: err=%v evs=%v", err, evs)
	}

	if err := repo.AttachArtifact(dbc, "CERT-NOPE", "https://x", "k"); err == nil {
		t.Fatalf("AttachArtifact(unknown): want error")
	}

	list, err := repo.ListByLearner(dbc, u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByLearner: err=%v len=%d", err, len(list))
	}
}
