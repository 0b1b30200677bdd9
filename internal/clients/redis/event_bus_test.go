package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

func TestNewEventBusValidation(t *testing.T) {
	if _, err := NewEventBus(nil, goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), ""); err == nil {
		t.Fatalf("NewEventBus(nil logger): want error")
	}
	if _, err := NewEventBus(logger.Nop(), nil, ""); err == nil {
		t.Fatalf("NewEventBus(nil client): want error")
	}
	bus, err := NewEventBus(logger.Nop(), goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), "  ")
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	defer bus.Close()
	if got := bus.(*eventBus).channel; got != DefaultChannel {
		t.Fatalf("channel: want=%q got=%q", DefaultChannel, got)
	}
}

func TestEventBusPublishIntegration(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := "credential-events-test"
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus, err := NewEventBus(logger.Nop(), rdb, channel)
	if err != nil {
		t.Fatalf("NewEventBus: %v", err)
	}
	if err := bus.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := bus.Publish(ctx, Event{Type: "credential.issued", Data: map[string]any{"credential_id": "CERT-1"}}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		if !strings.Contains(msg.Payload, `"credential.issued"`) || !strings.Contains(msg.Payload, "CERT-1") {
			t.Fatalf("payload: got=%s", msg.Payload)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for event")
	}
}
