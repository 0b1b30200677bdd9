// Package delivery holds the post-issuance collaborators: durable artifact storage and
// outbound notification.
package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
)

// ArtifactStore durably stores rendered bytes and returns their public URL.
type ArtifactStore interface {
	Store(ctx context.Context, data []byte, path string) (string, error)
}

// Notifier tells the learner, or other systems, that a credential was issued.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Notification struct {
	Email           string
	RecipientName   string
	CredentialID    string
	AchievementName string
	AchievementType types.AchievementType
	ArtifactURL     string
	VerifyURL       string
	Artifact        []byte
}

// ArtifactKey is stable per credential, so re-rendering overwrites rather than forks.
func ArtifactKey(learnerID uuid.UUID, credentialID string) string {
	return fmt.Sprintf("certificates/%s/%s.png", learnerID.String(), credentialID)
}
