package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTurnLockTTL = 30 * time.Second

// TurnLocker admits at most one operation per session at a time. Lock
// returns ErrTurnInProgress when the session is already busy; otherwise the
// returned func releases the session.
type TurnLocker interface {
	Lock(ctx context.Context, id string) (func(), error)
}

// MemoryTurnLocker guards sessions within a single process.
type MemoryTurnLocker struct {
	inflight sync.Map
}

func NewMemoryTurnLocker() *MemoryTurnLocker {
	return &MemoryTurnLocker{}
}

func (l *MemoryTurnLocker) Lock(_ context.Context, id string) (func(), error) {
	if _, busy := l.inflight.LoadOrStore(id, struct{}{}); busy {
		return nil, ErrTurnInProgress
	}
	return func() { l.inflight.Delete(id) }, nil
}

// Deletes the lock only while it still holds our token, so a turn that
// outlived its TTL cannot release someone else's lock.
var releaseTurnLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTurnLocker guards sessions across every API instance sharing the
// redis session store. The TTL bounds how long a crashed instance can hold
// a session; keep it above the slowest turn.
type RedisTurnLocker struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisTurnLocker(client *redis.Client, ttl time.Duration) *RedisTurnLocker {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTurnLockTTL
	}
	return &RedisTurnLocker{redis: client, ttl: ttl}
}

func (l *RedisTurnLocker) Lock(ctx context.Context, id string) (func(), error) {
	key := turnLockKey(id)
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to lock session: %w", err)
	}
	if !ok {
		return nil, ErrTurnInProgress
	}
	return func() {
		// A failed release leaves the key to expire on its own.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseTurnLock.Run(releaseCtx, l.redis, []string{key}, token).Err()
	}, nil
}

func turnLockKey(id string) string {
	return "chat_session_lock:" + id
}
