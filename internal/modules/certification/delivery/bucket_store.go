package delivery

import (
	"context"
	"fmt"

	"github.com/yungbote/neurobridge-credentials/internal/platform/gcp"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type bucketStore struct {
	log         *logger.Logger
	bucket      gcp.ArtifactBucket
	contentType string
}

func NewBucketStore(log *logger.Logger, bucket gcp.ArtifactBucket, contentType string) ArtifactStore {
	return &bucketStore{
		log:         log.With("service", "CertificateArtifactStore"),
		bucket:      bucket,
		contentType: contentType,
	}
}

func (s *bucketStore) Store(ctx context.Context, data []byte, path string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifact is empty")
	}
	if err := s.bucket.Put(ctx, path, s.contentType, data); err != nil {
		return "", fmt.Errorf("upload certificate artifact: %w", err)
	}
	url := s.bucket.PublicURL(path)
	s.log.Debug("certificate artifact stored", "key", path, "bytes", len(data))
	return url, nil
}
