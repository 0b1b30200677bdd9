package credential

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type AchievementEventRepo interface {
	Append(dbc dbctx.Context, ev *types.AchievementEvent) error
	ListByCredentialID(dbc dbctx.Context, credentialID string) ([]*types.AchievementEvent, error)
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, limit int) ([]*types.AchievementEvent, error)
}

type achievementEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementEventRepo(db *gorm.DB, baseLog *logger.Logger) AchievementEventRepo {
	return &achievementEventRepo{db: db, log: baseLog.With("repo", "AchievementEventRepo")}
}

func (r *achievementEventRepo) Append(dbc dbctx.Context, ev *types.AchievementEvent) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if ev == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(ev).Error
}

func (r *achievementEventRepo) ListByCredentialID(dbc dbctx.Context, credentialID string) ([]*types.AchievementEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AchievementEvent
	if credentialID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("credential_id = ?", credentialID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementEventRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID, limit int) ([]*types.AchievementEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.AchievementEvent
	if learnerID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("learner_id = ?", learnerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
