package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

// CredentialView is a learner's own credential as listed in their account.
type CredentialView struct {
	CredentialID    string                `json:"credential_id"`
	AchievementRef  uuid.UUID             `json:"achievement_id"`
	AchievementType types.AchievementType `json:"achievement_type"`
	AchievementName string                `json:"achievement_name"`
	IssuedAt        time.Time             `json:"issued_at"`
	ExpiresAt       *time.Time            `json:"expires_at,omitempty"`
	ArtifactURL     string                `json:"artifact_url,omitempty"`
}

type CredentialService interface {
	ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]CredentialView, error)
}

type credentialService struct {
	log         *logger.Logger
	credentials repos.CredentialRepo
	directory   DirectoryService
}

func NewCredentialService(log *logger.Logger, credentials repos.CredentialRepo, directory DirectoryService) CredentialService {
	return &credentialService{
		log:         log.With("service", "CredentialService"),
		credentials: credentials,
		directory:   directory,
	}
}

func (s *credentialService) ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]CredentialView, error) {
	if learnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: learner id is required", apperr.ErrInvalidArgument)
	}
	rows, err := s.credentials.ListByLearner(dbctx.Context{Ctx: ctx}, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	out := make([]CredentialView, 0, len(rows))
	for _, c := range rows {
		v := CredentialView{
			CredentialID:    c.CredentialID,
			AchievementRef:  c.AchievementRef,
			AchievementType: c.AchievementType,
			IssuedAt:        c.IssuedAt,
			ExpiresAt:       c.ExpiresAt,
		}
		if c.HasArtifact() {
			v.ArtifactURL = *c.ArtifactURL
		}
		name, err := s.directory.AchievementName(ctx, c.AchievementRef, c.AchievementType)
		switch {
		case err == nil:
			v.AchievementName = name
		case errors.Is(err, apperr.ErrNotFound):
			s.log.Debug("credential references missing achievement", "credential_id", c.CredentialID)
		default:
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
