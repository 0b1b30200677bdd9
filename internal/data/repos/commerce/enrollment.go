package commerce

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error)
	// HasActive reports whether userID holds a non-revoked enrollment on any of refs.
	HasActive(dbc dbctx.Context, userID uuid.UUID, achievementType types.AchievementType, refs []uuid.UUID) (bool, error)
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) HasActive(dbc dbctx.Context, userID uuid.UUID, achievementType types.AchievementType, refs []uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || len(refs) == 0 {
		return false, nil
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND achievement_type = ? AND achievement_ref IN ? AND revoked_at IS NULL", userID, achievementType, refs).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *enrollmentRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Enrollment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
