package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error)
	ListIDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Lesson
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("\"index\" ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListIDsByCourse returns lesson ids in course order.
func (r *lessonRepo) ListIDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	ids := []uuid.UUID{}
	if courseID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("course_id = ?", courseID).
		Order("\"index\" ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
