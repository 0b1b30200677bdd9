package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	if email == "" {
		email = fmt.Sprintf("learner-%s@example.com", uuid.NewString()[:8])
	}
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	if title == "" {
		title = "course"
	}
	c := &types.Course{
		ID:     uuid.New(),
		Title:  title,
		Status: "published",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, index int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:       uuid.New(),
		CourseID: courseID,
		Index:    index,
		Title:    fmt.Sprintf("lesson %d", index),
		Kind:     "reading",
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedCourseWithLessons creates a course with n lessons and returns both.
func SeedCourseWithLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, n int) (*types.Course, []*types.Lesson) {
	tb.Helper()
	c := SeedCourse(tb, ctx, tx, title)
	lessons := make([]*types.Lesson, 0, n)
	for i := 0; i < n; i++ {
		lessons = append(lessons, SeedLesson(tb, ctx, tx, c.ID, i))
	}
	return c, lessons
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) *types.LessonProgress {
	tb.Helper()
	now := time.Now().UTC()
	lp := &types.LessonProgress{
		ID:          uuid.New(),
		UserID:      userID,
		LessonID:    lessonID,
		Status:      "completed",
		CompletedAt: &now,
	}
	if err := tx.WithContext(ctx).Create(lp).Error; err != nil {
		tb.Fatalf("seed lesson progress: %v", err)
	}
	return lp
}

func SeedPath(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, courseIDs ...uuid.UUID) *types.LearningPath {
	tb.Helper()
	if title == "" {
		title = "path"
	}
	p := &types.LearningPath{ID: uuid.New(), Title: title}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed path: %v", err)
	}
	for i, cid := range courseIDs {
		pc := &types.LearningPathCourse{ID: uuid.New(), PathID: p.ID, CourseID: cid, Index: i}
		if err := tx.WithContext(ctx).Create(pc).Error; err != nil {
			tb.Fatalf("seed path course: %v", err)
		}
	}
	return p
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, ref uuid.UUID, achievementType types.AchievementType) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:              uuid.New(),
		UserID:          userID,
		AchievementRef:  ref,
		AchievementType: achievementType,
		Source:          "purchase",
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedCredential(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, ref uuid.UUID, achievementType types.AchievementType, artifactURL string) *types.Credential {
	tb.Helper()
	c := &types.Credential{
		ID:              uuid.New(),
		CredentialID:    "CERT-SEED-" + uuid.NewString()[:8],
		LearnerID:       userID,
		AchievementRef:  ref,
		AchievementType: achievementType,
		IssuedAt:        time.Now().UTC(),
	}
	if artifactURL != "" {
		key := "certificates/seed.png"
		c.ArtifactURL = &artifactURL
		c.ArtifactKey = &key
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed credential: %v", err)
	}
	return c
}
