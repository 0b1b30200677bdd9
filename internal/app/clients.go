package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-credentials/internal/clients/redis"
	"github.com/yungbote/neurobridge-credentials/internal/platform/envutil"
	"github.com/yungbote/neurobridge-credentials/internal/platform/gcp"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
	"github.com/yungbote/neurobridge-credentials/internal/platform/sendgrid"
)

// Clients holds the external systems. Email and the event bus are optional and stay
// nil when unconfigured.
type Clients struct {
	Bucket   gcp.ArtifactBucket
	Email    sendgrid.Client
	EventBus redis.EventBus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcp.NewArtifactBucket(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init artifact bucket: %w", err)
	}

	var email sendgrid.Client
	if envutil.String("SENDGRID_API_KEY", "") != "" {
		email, err = sendgrid.NewFromEnv(log)
		if err != nil {
			_ = bucket.Close()
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set, certificate emails disabled")
	}

	var bus redis.EventBus
	if strings.TrimSpace(envutil.String("REDIS_ADDR", "")) != "" {
		bus, err = redis.NewEventBusFromEnv(log)
		if err != nil {
			_ = bucket.Close()
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
	}

	return Clients{Bucket: bucket, Email: email, EventBus: bus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
}
