package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	"github.com/yungbote/neurobridge-credentials/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/ctxutil"
)

func newDirectory(t *testing.T, gdb *gorm.DB) DirectoryService {
	t.Helper()
	log := testutil.Logger(t)
	return NewDirectoryService(log, repos.NewUserRepo(gdb, log), repos.NewCourseRepo(gdb, log), repos.NewPathRepo(gdb, log))
}

func TestAuthRoundTrip(t *testing.T) {
	as := NewAuthService(testutil.Logger(t), "test-secret", time.Minute)
	learner := uuid.New()

	token, err := as.IssueAccessToken(learner)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.LearnerID != learner {
		t.Fatalf("request data: want=%s got=%+v", learner, rd)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	log := testutil.Logger(t)
	as := NewAuthService(log, "test-secret", time.Minute)
	other := NewAuthService(log, "other-secret", time.Minute)
	foreign, err := other.IssueAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	expiredStr, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "not-a-uuid",
	}})
	badSubjectStr, err := badSubject.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign bad subject: %v", err)
	}

	cases := map[string]string{
		"empty":       "",
		"garbage":     "abc.def.ghi",
		"wrong key":   foreign,
		"expired":     expiredStr,
		"bad subject": badSubjectStr,
	}
	for name, tok := range cases {
		_, err := as.SetContextFromToken(context.Background(), tok)
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Fatalf("%s: want=%v got=%v", name, apperr.ErrUnauthorized, err)
		}
	}
}

func TestEntitlement(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewEntitlementService(log, repos.NewEnrollmentRepo(gdb, log), repos.NewPathRepo(gdb, log))

	u := testutil.SeedUser(t, ctx, gdb, "")
	enrolled := testutil.SeedCourse(t, ctx, gdb, "enrolled")
	viaPath := testutil.SeedCourse(t, ctx, gdb, "via path")
	stranger := testutil.SeedCourse(t, ctx, gdb, "stranger")
	path := testutil.SeedPath(t, ctx, gdb, "path", viaPath.ID)
	otherPath := testutil.SeedPath(t, ctx, gdb, "other path", stranger.ID)
	testutil.SeedEnrollment(t, ctx, gdb, u.ID, enrolled.ID, types.AchievementCourse)
	testutil.SeedEnrollment(t, ctx, gdb, u.ID, path.ID, types.AchievementLearningPath)

	revoked := testutil.SeedEnrollment(t, ctx, gdb, u.ID, otherPath.ID, types.AchievementLearningPath)
	now := time.Now().UTC()
	if err := gdb.Model(revoked).Update("revoked_at", &now).Error; err != nil {
		t.Fatalf("revoke: %v", err)
	}

	cases := []struct {
		name string
		ref  uuid.UUID
		typ  types.AchievementType
		want bool
	}{
		{"direct course", enrolled.ID, types.AchievementCourse, true},
		{"course covered by path", viaPath.ID, types.AchievementCourse, true},
		{"course in revoked path", stranger.ID, types.AchievementCourse, false},
		{"enrolled path", path.ID, types.AchievementLearningPath, true},
		{"revoked path", otherPath.ID, types.AchievementLearningPath, false},
		{"course id as path", enrolled.ID, types.AchievementLearningPath, false},
	}
	for _, tc := range cases {
		got, err := svc.IsEntitled(ctx, u.ID, tc.ref, tc.typ)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	dir := newDirectory(t, gdb)

	u := testutil.SeedUser(t, ctx, gdb, "grace@example.com")
	if err := gdb.Model(u).Updates(map[string]any{"first_name": "Grace", "last_name": "Hopper"}).Error; err != nil {
		t.Fatalf("name user: %v", err)
	}
	course := testutil.SeedCourse(t, ctx, gdb, "Compilers")
	path := testutil.SeedPath(t, ctx, gdb, "Systems Track", course.ID)

	name, email, err := dir.Recipient(ctx, u.ID)
	if err != nil {
		t.Fatalf("Recipient: %v", err)
	}
	if name != "Grace Hopper" || email != "grace@example.com" {
		t.Fatalf("Recipient: want=Grace Hopper/grace@example.com got=%s/%s", name, email)
	}
	if got, _ := dir.AchievementName(ctx, course.ID, types.AchievementCourse); got != "Compilers" {
		t.Fatalf("course name: want=Compilers got=%q", got)
	}
	if got, _ := dir.AchievementName(ctx, path.ID, types.AchievementLearningPath); got != "Systems Track" {
		t.Fatalf("path name: want=Systems Track got=%q", got)
	}
	if _, _, err := dir.Recipient(ctx, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown learner: want=%v got=%v", apperr.ErrNotFound, err)
	}
	if _, err := dir.AchievementName(ctx, uuid.New(), types.AchievementCourse); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown course: want=%v got=%v", apperr.ErrNotFound, err)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	dir := newDirectory(t, gdb)
	svc := NewVerificationService(log, repos.NewCredentialRepo(gdb, log), dir).(*verificationService)

	u := testutil.SeedUser(t, ctx, gdb, "alan@example.com")
	course := testutil.SeedCourse(t, ctx, gdb, "Computability")
	cred := testutil.SeedCredential(t, ctx, gdb, u.ID, course.ID, types.AchievementCourse, "https://cdn.example.com/c.png")

	got, err := svc.Verify(ctx, cred.CredentialID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !got.Valid || got.LearnerName != "Ada Lovelace" || got.AchievementName != "Computability" {
		t.Fatalf("Verify: want valid Ada Lovelace/Computability got=%+v", got)
	}
	if got.ArtifactURL != "https://cdn.example.com/c.png" {
		t.Fatalf("artifact url: got=%q", got.ArtifactURL)
	}

	exp := time.Now().UTC().Add(time.Hour)
	if err := gdb.Model(cred).Update("expires_at", &exp).Error; err != nil {
		t.Fatalf("set expiry: %v", err)
	}
	svc.now = func() time.Time { return exp.Add(time.Second) }
	got, err = svc.Verify(ctx, cred.CredentialID)
	if err != nil {
		t.Fatalf("Verify expired: %v", err)
	}
	if got.Valid {
		t.Fatalf("expired credential: want valid=false got=true")
	}

	if _, err := svc.Verify(ctx, "CERT-NOPE"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id: want=%v got=%v", apperr.ErrNotFound, err)
	}
	if _, err := svc.Verify(ctx, "  "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("blank id: want=%v got=%v", apperr.ErrInvalidArgument, err)
	}
}

func TestListForLearner(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewCredentialService(log, repos.NewCredentialRepo(gdb, log), newDirectory(t, gdb))

	u := testutil.SeedUser(t, ctx, gdb, "")
	other := testutil.SeedUser(t, ctx, gdb, "")
	course := testutil.SeedCourse(t, ctx, gdb, "Networks")
	testutil.SeedCredential(t, ctx, gdb, u.ID, course.ID, types.AchievementCourse, "")
	testutil.SeedCredential(t, ctx, gdb, u.ID, uuid.New(), types.AchievementLearningPath, "")
	testutil.SeedCredential(t, ctx, gdb, other.ID, course.ID, types.AchievementCourse, "")

	views, err := svc.ListForLearner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListForLearner: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views: want=2 got=%d", len(views))
	}
	names := map[string]bool{}
	for _, v := range views {
		names[v.AchievementName] = true
	}
	if !names["Networks"] || !names[""] {
		t.Fatalf("names: want Networks and a blank for the missing path got=%v", names)
	}
	if _, err := svc.ListForLearner(ctx, uuid.Nil); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("nil learner: want=%v got=%v", apperr.ErrInvalidArgument, err)
	}
}
