package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: mr.Addr(), SessionTTL: time.Hour}

	store, client := BuildSessionStore(context.Background(), cfg, logging.Discard())
	if client == nil {
		t.Fatalf("expected redis client")
	}
	t.Cleanup(func() { _ = client.Close() })
	if _, ok := store.(*conversation.RedisSessionStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}

	session := conversation.NewSession(time.Now())
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("chat_session:" + session.ID); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}
}

func TestBuildSessionStoreFallsBackToMemory(t *testing.T) {
	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: "127.0.0.1:1", SessionTTL: time.Hour}

	store, client := BuildSessionStore(context.Background(), cfg, logging.Discard())
	if client != nil {
		t.Fatalf("expected no client for unreachable redis")
	}
	if _, ok := store.(*conversation.MemorySessionStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildTurnLocker(t *testing.T) {
	cfg := &appconfig.Config{ProviderTimeout: 15 * time.Second}
	if l := BuildTurnLocker(cfg, nil); l != nil {
		t.Fatalf("expected no locker without redis, got %T", l)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := BuildTurnLocker(cfg, client)
	if _, ok := l.(*conversation.RedisTurnLocker); !ok {
		t.Fatalf("expected redis locker, got %T", l)
	}
	unlock, err := l.Lock(context.Background(), "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()
	if ttl := mr.TTL("chat_session_lock:s1"); ttl != 45*time.Second {
		t.Fatalf("expected 45s lock ttl, got %s", ttl)
	}
	if _, err := BuildTurnLocker(cfg, client).Lock(context.Background(), "s1"); !errors.Is(err, conversation.ErrTurnInProgress) {
		t.Fatalf("expected turn in progress, got %v", err)
	}
}

func TestConnectPostgresPoolEmptyURL(t *testing.T) {
	if pool := ConnectPostgresPool(context.Background(), "  ", logging.Discard()); pool != nil {
		t.Fatalf("expected nil pool for empty url")
	}
}
