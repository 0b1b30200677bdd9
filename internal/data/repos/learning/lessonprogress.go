package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type LessonProgressRepo interface {
	GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error)
	Upsert(dbc dbctx.Context, row *types.LessonProgress) error
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.LessonProgress
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonProgressRepo) Upsert(dbc dbctx.Context, row *types.LessonProgress) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.LessonID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"completed_at",
				"time_spent_seconds",
				"updated_at",
			}),
		}).
		Create(row).Error
}
