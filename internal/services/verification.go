package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-credentials/internal/data/repos"
	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

// Verification is the public view of a credential. It deliberately omits internal ids.
type Verification struct {
	Valid           bool                  `json:"valid"`
	CredentialID    string                `json:"credential_id"`
	LearnerName     string                `json:"learner_name"`
	AchievementName string                `json:"achievement_name"`
	AchievementType types.AchievementType `json:"achievement_type"`
	IssuedAt        time.Time             `json:"issued_at"`
	ExpiresAt       *time.Time            `json:"expires_at,omitempty"`
	ArtifactURL     string                `json:"artifact_url,omitempty"`
}

type VerificationService interface {
	// Verify returns apperr.ErrNotFound for unknown ids.
	Verify(ctx context.Context, credentialID string) (*Verification, error)
}

type verificationService struct {
	log         *logger.Logger
	credentials repos.CredentialRepo
	directory   DirectoryService
	now         func() time.Time
}

func NewVerificationService(log *logger.Logger, credentials repos.CredentialRepo, directory DirectoryService) VerificationService {
	return &verificationService{
		log:         log.With("service", "VerificationService"),
		credentials: credentials,
		directory:   directory,
		now:         time.Now,
	}
}

func (s *verificationService) Verify(ctx context.Context, credentialID string) (*Verification, error) {
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" {
		return nil, fmt.Errorf("%w: credential id is required", apperr.ErrInvalidArgument)
	}
	cred, err := s.credentials.GetByCredentialID(dbctx.Context{Ctx: ctx}, credentialID)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("credential %s: %w", credentialID, apperr.ErrNotFound)
	}

	out := &Verification{
		Valid:           cred.ValidAt(s.now()),
		CredentialID:    cred.CredentialID,
		AchievementType: cred.AchievementType,
		IssuedAt:        cred.IssuedAt,
		ExpiresAt:       cred.ExpiresAt,
	}
	if cred.HasArtifact() {
		out.ArtifactURL = *cred.ArtifactURL
	}
	// Names are best effort; a renamed or removed course must not make a real
	// credential unverifiable.
	if name, _, err := s.directory.Recipient(ctx, cred.LearnerID); err == nil {
		out.LearnerName = name
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if name, err := s.directory.AchievementName(ctx, cred.AchievementRef, cred.AchievementType); err == nil {
		out.AchievementName = name
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return out, nil
}
