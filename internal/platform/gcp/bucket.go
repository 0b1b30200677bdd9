package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

const (
	uploadTimeout = 2 * time.Minute
	readTimeout   = 30 * time.Second
)

// ArtifactBucket stores rendered certificate artifacts.
type ArtifactBucket interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	cfg    StorageConfig
}

func NewArtifactBucket(log *logger.Logger) (ArtifactBucket, error) {
	cfg, err := StorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve storage config: %w", err)
	}
	return NewArtifactBucketWithConfig(context.Background(), log, cfg)
}

func NewArtifactBucketWithConfig(ctx context.Context, log *logger.Logger, cfg StorageConfig) (ArtifactBucket, error) {
	if err := ValidateStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate storage config: %w", err)
	}
	serviceLog := log.With("service", "ArtifactBucket")

	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Artifact storage initialized",
		"mode", cfg.Mode,
		"mode_inferred", cfg.ModeInferred,
		"bucket", cfg.Bucket,
		"cdn_domain", cfg.CDNDomain,
		"emulator_host", cfg.EmulatorHost,
	)
	return &bucketService{log: serviceLog, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		// The storage client reads the emulator endpoint from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) Put(ctx context.Context, key string, contentType string, data []byte) error {
	key = normalizeKey(key)
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := bs.client.Bucket(bs.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = contentTypeForKey(key)
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	_, err := bs.client.Bucket(bs.cfg.Bucket).Object(normalizeKey(key)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return true, nil
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	it := bs.client.Bucket(bs.cfg.Bucket).Objects(ctx, &storage.Query{Prefix: normalizeKey(prefix)})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	if err := bs.client.Bucket(bs.cfg.Bucket).Object(normalizeKey(key)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.cfg.Bucket, err)
	}
	return nil
}

func (bs *bucketService) PublicURL(key string) string {
	return publicURL(bs.cfg, key)
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

// publicURL prefers the CDN, then the emulator media endpoint, then an explicit base
// URL, then the default GCS host.
func publicURL(cfg StorageConfig, key string) string {
	key = normalizeKey(key)
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(cfg.CDNDomain, "/"), key)
	}
	if cfg.IsEmulator() {
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", strings.TrimRight(base, "/"), url.PathEscape(cfg.Bucket), url.PathEscape(key))
		}
	}
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.PublicBaseURL, "/"), cfg.Bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
}

func normalizeKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(normalizeKey(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
