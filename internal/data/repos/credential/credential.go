package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type CredentialRepo interface {
	// GetOrCreate inserts row unless a credential already exists for the same
	// (learner, achievement, type). It returns the stored row and whether this call
	// created it. Concurrent callers always converge on a single row.
	GetOrCreate(dbc dbctx.Context, row *types.Credential) (*types.Credential, bool, error)
	GetByAchievement(dbc dbctx.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (*types.Credential, error)
	GetByCredentialID(dbc dbctx.Context, credentialID string) (*types.Credential, error)
	// AttachArtifact sets the artifact location and records an audit event.
	AttachArtifact(dbc dbctx.Context, credentialID string, url string, key string) error
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]*types.Credential, error)
	ListMissingArtifact(dbc dbctx.Context, limit int) ([]*types.Credential, error)
}

type credentialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCredentialRepo(db *gorm.DB, baseLog *logger.Logger) CredentialRepo {
	return &credentialRepo{db: db, log: baseLog.With("repo", "CredentialRepo")}
}

func (r *credentialRepo) GetOrCreate(dbc dbctx.Context, row *types.Credential) (*types.Credential, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, false, fmt.Errorf("credential row is nil")
	}
	if row.LearnerID == uuid.Nil || row.AchievementRef == uuid.Nil {
		return nil, false, fmt.Errorf("credential requires learner_id and achievement_ref")
	}
	if !row.AchievementType.Valid() {
		return nil, false, fmt.Errorf("credential has invalid achievement_type %q", row.AchievementType)
	}
	if strings.TrimSpace(row.CredentialID) == "" {
		return nil, false, fmt.Errorf("credential_id is required")
	}
	if row.IssuedAt.IsZero() {
		row.IssuedAt = time.Now().UTC()
	}

	created := false
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "learner_id"},
				{Name: "achievement_ref"},
				{Name: "achievement_type"},
			},
			DoNothing: true,
		}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Create(newEvent(row, types.EventCredentialIssued, map[string]any{
			"issued_at": row.IssuedAt.UTC().Format(time.RFC3339Nano),
		})).Error
	})
	if err != nil && !isUniqueViolation(err) {
		return nil, false, err
	}
	if created && err == nil {
		return row, true, nil
	}

	// Lost the race: the winner's row is authoritative.
	existing, gerr := r.GetByAchievement(dbctx.Context{Ctx: dbc.Ctx, Tx: dbc.Tx}, row.LearnerID, row.AchievementRef, row.AchievementType)
	if gerr != nil {
		return nil, false, gerr
	}
	if existing == nil {
		if err != nil {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("credential insert conflicted but no row found for %s", types.CredentialKey(row.LearnerID, row.AchievementRef))
	}
	return existing, false, nil
}

func (r *credentialRepo) GetByAchievement(dbc dbctx.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (*types.Credential, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if learnerID == uuid.Nil || achievementRef == uuid.Nil {
		return nil, nil
	}
	var row types.Credential
	if err := transaction.WithContext(dbc.Ctx).
		Where("learner_id = ? AND achievement_ref = ? AND achievement_type = ?", learnerID, achievementRef, achievementType).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *credentialRepo) GetByCredentialID(dbc dbctx.Context, credentialID string) (*types.Credential, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" {
		return nil, nil
	}
	var row types.Credential
	if err := transaction.WithContext(dbc.Ctx).
		Where("credential_id = ?", credentialID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *credentialRepo) AttachArtifact(dbc dbctx.Context, credentialID string, url string, key string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	credentialID = strings.TrimSpace(credentialID)
	url = strings.TrimSpace(url)
	if credentialID == "" || url == "" {
		return fmt.Errorf("credential_id and artifact url are required")
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var row types.Credential
		if err := tx.Where("credential_id = ?", credentialID).Limit(1).Find(&row).Error; err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&types.Credential{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"artifact_url": url,
				"artifact_key": key,
				"updated_at":   time.Now().UTC(),
			}).Error; err != nil {
			return err
		}
		return tx.Create(newEvent(&row, types.EventArtifactAttached, map[string]any{
			"artifact_key": key,
		})).Error
	})
}

func (r *credentialRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]*types.Credential, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Credential
	if learnerID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("learner_id = ?", learnerID).
		Order("issued_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListMissingArtifact returns credentials whose artifact was never stored, oldest first.
func (r *credentialRepo) ListMissingArtifact(dbc dbctx.Context, limit int) ([]*types.Credential, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Credential
	if err := transaction.WithContext(dbc.Ctx).
		Where("artifact_url IS NULL OR artifact_url = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func newEvent(c *types.Credential, eventType string, payload map[string]any) *types.AchievementEvent {
	ev := &types.AchievementEvent{
		LearnerID:       c.LearnerID,
		CredentialID:    c.CredentialID,
		AchievementRef:  c.AchievementRef,
		AchievementType: c.AchievementType,
		EventType:       eventType,
	}
	if len(payload) > 0 {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = datatypes.JSON(b)
		}
	}
	return ev
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
